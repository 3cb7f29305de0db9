package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool)}
}

const studentColumns = `id, name, surname, national_id, parent_chat_id, created_at`

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.Name, &s.Surname, &s.NationalID, &s.ParentChatID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт нового студента
func (r *StudentRepository) Create(ctx context.Context, student *model.Student) error {
	query := `
		INSERT INTO students (name, surname, national_id, parent_chat_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		student.Name,
		student.Surname,
		student.NationalID,
		student.ParentChatID,
	).Scan(&student.ID, &student.CreatedAt)

	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

// GetByID получает студента по ID, nil если не найден
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := scanStudent(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return student, nil
}

// List получает всех студентов
func (r *StudentRepository) List(ctx context.Context) ([]*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY id`
	return r.list(ctx, query)
}

// GetByParentChatID получает студентов, привязанных к чату родителя
func (r *StudentRepository) GetByParentChatID(ctx context.Context, chatID int64) ([]*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE parent_chat_id = $1 ORDER BY id`
	return r.list(ctx, query, chatID)
}

// GetWithParentChat получает студентов, у которых указан чат родителя
func (r *StudentRepository) GetWithParentChat(ctx context.Context) ([]*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE parent_chat_id IS NOT NULL ORDER BY id`
	return r.list(ctx, query)
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...any) ([]*model.Student, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}

	return students, rows.Err()
}

// Update применяет патч, возвращает false если студент не найден
func (r *StudentRepository) Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error) {
	var (
		fields []string
		args   []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		fields = append(fields, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Surname != nil {
		add("surname", *patch.Surname)
	}
	if patch.NationalID != nil {
		add("national_id", *patch.NationalID)
	}
	if patch.ParentChatID != nil {
		add("parent_chat_id", *patch.ParentChatID)
	}
	if len(fields) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE students SET %s WHERE id = $%d`, strings.Join(fields, ", "), len(args))

	affected, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}

	return affected > 0, nil
}

// Delete удаляет студента, записи и посещаемость остаются
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return affected > 0, nil
}
