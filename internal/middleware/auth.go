package middleware

import (
	"context"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

type authenticator interface {
	Authenticate(ctx context.Context, username, password string, role model.Role) (*model.User, error)
}

// BasicAuth пускает сотрудников центра по логину и паролю
func BasicAuth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="desk"`)
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), username, password, "")
		if err != nil {
			c.Header("WWW-Authenticate", `Basic realm="desk"`)
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с ролью role
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != role {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}
