package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository простое key-value хранилище настроек
type SettingsRepository struct {
	*base.Repository
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{Repository: base.NewRepository(pool)}
}

// Get возвращает значение и false если ключа нет
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.QueryRow(ctx, `SELECT v FROM settings WHERE k = $1`, key).Scan(&value)
	if err != nil {
		if base.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set создаёт или перезаписывает значение
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (k, v) VALUES ($1, $2)
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v
	`
	if _, err := r.ExecAffected(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
