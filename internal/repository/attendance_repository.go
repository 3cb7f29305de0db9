package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет отметку посещаемости
func (r *AttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	query := `
		INSERT INTO attendance (student_id, status, ts)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.QueryRow(ctx, query, a.StudentID, a.Status, a.TS).Scan(&a.ID); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}

	return nil
}

// GetByStudentID получает посещаемость студента, новые первыми
func (r *AttendanceRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Attendance, error) {
	query := `
		SELECT id, student_id, status, ts
		FROM attendance
		WHERE student_id = $1
		ORDER BY ts DESC
	`
	return r.list(ctx, query, studentID)
}

// GetAll получает всю посещаемость
func (r *AttendanceRepository) GetAll(ctx context.Context) ([]*model.Attendance, error) {
	return r.list(ctx, `SELECT id, student_id, status, ts FROM attendance ORDER BY ts DESC`)
}

func (r *AttendanceRepository) list(ctx context.Context, query string, args ...any) ([]*model.Attendance, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	defer rows.Close()

	var records []*model.Attendance
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Status, &a.TS); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, &a)
	}

	return records, rows.Err()
}
