package response

import (
	"net/http"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// Envelope общий формат ответа API
type Envelope struct {
	Data  any              `json:"data,omitempty"`
	Error *apperrors.Error `json:"error,omitempty"`
}

func JSON(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data})
}

func OK(c *gin.Context, data any) {
	JSON(c, http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	JSON(c, http.StatusCreated, data)
}

// Error приводит ошибку к apperrors.Error и отдаёт её статус
func Error(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// File отдаёт бинарный файл как вложение
func File(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
