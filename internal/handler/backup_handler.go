package handler

import (
	"context"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/gin-gonic/gin"
)

type backupService interface {
	Backup(ctx context.Context) (*model.Backup, error)
	List(ctx context.Context) ([]*model.Backup, error)
}

type BackupHandler struct {
	backups backupService
}

func NewBackupHandler(backups backupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

func (h *BackupHandler) Create(c *gin.Context) {
	backup, err := h.backups.Backup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, backup)
}

func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, backups)
}
