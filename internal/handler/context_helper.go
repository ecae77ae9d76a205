package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-records-api/internal/middleware"
	"github.com/noah-isme/journey-records-api/internal/models"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
	"github.com/noah-isme/journey-records-api/pkg/response"
)

// requireClaims returns the authenticated caller, writing a 401 when the JWT middleware left none.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
