package handler

import (
	"context"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/middleware"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/Freeeeeet/dershane_desk/internal/service"
	"github.com/gin-gonic/gin"
)

type userService interface {
	CreateUser(ctx context.Context, req service.CreateUserRequest) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

type tokenStore interface {
	SetToken(ctx context.Context, token string) error
}

// UserHandler учётные записи сотрудников и настройки бота
type UserHandler struct {
	users  userService
	tokens tokenStore
}

func NewUserHandler(users userService, tokens tokenStore) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword меняет пароль текущего пользователя
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), user.Username, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type setTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// SetTelegramToken сохраняет токен бота, применяется после перезапуска
func (h *UserHandler) SetTelegramToken(c *gin.Context) {
	var req setTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.tokens.SetToken(c.Request.Context(), req.Token); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"restart_required": true})
}
