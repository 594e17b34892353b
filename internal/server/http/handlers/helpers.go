package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/server/http/dto"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidTarget), errors.Is(err, domainErrors.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrServiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrQuantityOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}
