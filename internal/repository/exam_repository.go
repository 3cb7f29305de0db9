package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExamRepository struct {
	*base.Repository
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет результат экзамена
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	query := `
		INSERT INTO exams (student_id, name, score, ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.QueryRow(ctx, query, exam.StudentID, exam.Name, exam.Score, exam.TS).Scan(&exam.ID)
	if err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	return nil
}

// GetByStudentID получает экзамены студента, новые первыми
func (r *ExamRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Exam, error) {
	query := `
		SELECT id, student_id, name, score, ts
		FROM exams
		WHERE student_id = $1
		ORDER BY ts DESC
	`
	return r.list(ctx, query, studentID)
}

// GetAll получает все экзамены
func (r *ExamRepository) GetAll(ctx context.Context) ([]*model.Exam, error) {
	return r.list(ctx, `SELECT id, student_id, name, score, ts FROM exams ORDER BY ts DESC`)
}

func (r *ExamRepository) list(ctx context.Context, query string, args ...any) ([]*model.Exam, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get exams: %w", err)
	}
	defer rows.Close()

	var exams []*model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.StudentID, &e.Name, &e.Score, &e.TS); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, &e)
	}

	return exams, rows.Err()
}
