package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retentionflow-backend/models"
	"retentionflow-backend/services"
)

type FollowupController struct {
	followups *services.FollowupService
}

func NewFollowupController(followups *services.FollowupService) *FollowupController {
	return &FollowupController{followups: followups}
}

// GetFollowups lists followups, optionally filtered by ?status
func (fc *FollowupController) GetFollowups(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	followups, err := fc.followups.ListFollowups(c.Request.Context(), scope, models.FollowupStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve followups")
		return
	}
	c.JSON(http.StatusOK, followups)
}
