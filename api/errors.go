package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mgtravels/busbooking/internal/domain"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Storage
// and lock failures surface as 503 so callers never mistake infrastructure
// trouble for a taken seat.
func respondError(c *gin.Context, err error) {
	var notFound domain.NotFoundError
	var invalid domain.InvalidRequestError
	var rejected domain.RejectedError
	var conflict domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.As(err, &rejected):
		c.JSON(http.StatusConflict, gin.H{"error": rejected.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.Is(err, domain.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking system is busy, try again"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary storage failure"})
	}
}
