package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-discipline-api/internal/middleware"
	"github.com/noah-isme/hr-discipline-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func queryParamInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Param(key))
	if err != nil {
		return 0
	}
	return value
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
