package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BackupRepository struct {
	*base.Repository
}

func NewBackupRepository(pool *pgxpool.Pool) *BackupRepository {
	return &BackupRepository{Repository: base.NewRepository(pool)}
}

// Create записывает факт резервного копирования
func (r *BackupRepository) Create(ctx context.Context, b *model.Backup) error {
	err := r.QueryRow(ctx, `INSERT INTO backups (path, ts) VALUES ($1, $2) RETURNING id`, b.Path, b.TS).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	return nil
}

// List получает историю резервных копий, новые первыми
func (r *BackupRepository) List(ctx context.Context) ([]*model.Backup, error) {
	rows, err := r.Query(ctx, `SELECT id, path, ts FROM backups ORDER BY ts DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []*model.Backup
	for rows.Next() {
		var b model.Backup
		if err := rows.Scan(&b.ID, &b.Path, &b.TS); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, &b)
	}

	return backups, rows.Err()
}
