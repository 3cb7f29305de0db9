package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(pool)}
}

// Create добавляет окно, пересечения с другими окнами не проверяются
func (r *AvailabilityRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO teacher_availability (teacher_id, start_ts, end_ts)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.QueryRow(ctx, query, window.TeacherID, window.StartTS, window.EndTS).Scan(&window.ID)
	if err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}

	return nil
}

// GetByTeacherID получает все окна учителя
func (r *AvailabilityRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, teacher_id, start_ts, end_ts
		FROM teacher_availability
		WHERE teacher_id = $1
	`
	return r.list(ctx, query, teacherID)
}

// GetAll получает все окна всех учителей
func (r *AvailabilityRepository) GetAll(ctx context.Context) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, teacher_id, start_ts, end_ts
		FROM teacher_availability
		ORDER BY teacher_id, start_ts
	`
	return r.list(ctx, query)
}

func (r *AvailabilityRepository) list(ctx context.Context, query string, args ...any) ([]*model.AvailabilityWindow, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.ID, &w.TeacherID, &w.StartTS, &w.EndTS); err != nil {
			return nil, fmt.Errorf("scan availability window: %w", err)
		}
		windows = append(windows, &w)
	}

	return windows, rows.Err()
}

// Delete удаляет окно
func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM teacher_availability WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete availability window: %w", err)
	}
	return affected > 0, nil
}
