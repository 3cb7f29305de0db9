package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет запись на занятие
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (student_id, teacher_id, start_ts, duration_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		appt.StudentID,
		appt.TeacherID,
		appt.StartTS,
		appt.DurationMin,
	).Scan(&appt.ID, &appt.CreatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByStudentID получает все записи студента у любых учителей
func (r *AppointmentRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Appointment, error) {
	query := `
		SELECT id, student_id, teacher_id, start_ts, duration_min, created_at
		FROM appointments
		WHERE student_id = $1
		ORDER BY start_ts DESC
	`
	return r.list(ctx, query, studentID)
}

// GetAll получает все записи
func (r *AppointmentRepository) GetAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT id, student_id, teacher_id, start_ts, duration_min, created_at
		FROM appointments
		ORDER BY start_ts DESC
	`
	return r.list(ctx, query)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		var a model.Appointment
		err := rows.Scan(
			&a.ID,
			&a.StudentID,
			&a.TeacherID,
			&a.StartTS,
			&a.DurationMin,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, &a)
	}

	return appts, rows.Err()
}

// Delete удаляет запись, соседние записи не перепроверяются
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	return affected > 0, nil
}
