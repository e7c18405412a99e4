// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// ReportController handles all reporting functions
type ReportController struct {
	analytics *services.AnalyticsService
	loc       *time.Location
}

func NewReportController(analytics *services.AnalyticsService, loc *time.Location) *ReportController {
	return &ReportController{analytics: analytics, loc: loc}
}

// GetReportAnalytics returns retention rate, service and stylist breakdowns
// and missed followups for the caller's clients.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	report, err := rc.analytics.Report(c.Request.Context(), scope, utils.Today(time.Now(), rc.loc))
	if err != nil {
		respondServiceError(c, err, "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, report)
}
