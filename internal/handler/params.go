package handler

import (
	"strconv"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// pathID читает положительный целочисленный параметр пути
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Wrap(err, apperrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func invalidPayload(err error) error {
	return apperrors.Wrap(err, apperrors.ErrValidation, "invalid payload")
}
