// Package httpapi is the gin-based HTTP surface: routing, bearer
// authentication, input validation and the mapping from service errors to
// status codes.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avealov/rulehub/internal/common"
)

// abortWithError translates a service error into a status code and a JSON
// body. Validation errors carry their message through; everything else gets
// a fixed phrase so internals never leak.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
	case errors.Is(err, common.ErrorConflict):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "already taken"})
	case errors.Is(err, common.ErrorUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "unauthorized"})
	case errors.Is(err, common.ErrorForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
