package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// actorFromContext returns the caller behind the request. Routes without a token yield
// the zero actor, which every access check rejects.
func actorFromContext(c *gin.Context) models.Actor {
	claims, _ := middleware.Claims(c)
	return models.ActorFromClaims(claims)
}
