package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

type DashboardOverview struct {
	TotalClients     int64     `json:"totalClients"`
	PendingFollowups int       `json:"pendingFollowups"`
	DueToday         DueBucket `json:"dueToday"`
	DueSoon          DueBucket `json:"dueSoon"`
	Overdue          DueBucket `json:"overdue"`
}

type DueBucket struct {
	Count int       `json:"count"`
	List  []DueItem `json:"list"`
}

type DueItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	ServiceType string    `json:"serviceType"`
	Stylist     *string   `json:"stylist"`
	NextDue     string    `json:"nextDue"`
	Date        string    `json:"date"` // e.g. "Today", "Tomorrow", "3 days overdue"
}

type DashboardController struct {
	clients   *services.ClientService
	followups *services.FollowupService
	dueWindow int
	loc       *time.Location
}

func NewDashboardController(clients *services.ClientService, followups *services.FollowupService, dueWindow int, loc *time.Location) *DashboardController {
	return &DashboardController{clients: clients, followups: followups, dueWindow: dueWindow, loc: loc}
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	total, err := dc.clients.Count(ctx, scope)
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard")
		return
	}
	due, err := dc.clients.Due(ctx, scope, utils.Today(time.Now(), dc.loc), dc.dueWindow)
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard")
		return
	}
	pending, err := dc.followups.ListFollowups(ctx, scope, models.FollowupPending)
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard")
		return
	}

	overview := DashboardOverview{
		TotalClients:     total,
		PendingFollowups: len(pending),
		DueToday:         DueBucket{List: []DueItem{}},
		DueSoon:          DueBucket{List: []DueItem{}},
		Overdue:          DueBucket{List: []DueItem{}},
	}
	for _, d := range due {
		var bucket *DueBucket
		switch d.Bucket {
		case retention.BucketDueToday:
			bucket = &overview.DueToday
		case retention.BucketDueSoon:
			bucket = &overview.DueSoon
		case retention.BucketOverdue:
			bucket = &overview.Overdue
		default:
			continue
		}
		bucket.Count++
		bucket.List = append(bucket.List, DueItem{
			ID:          d.ID,
			Name:        d.Name,
			Phone:       d.Phone,
			ServiceType: d.ServiceType,
			Stylist:     d.Stylist,
			NextDue:     d.NextDue.Format(time.DateOnly),
			Date:        relativeDay(d.DaysUntilDue),
		})
	}

	c.JSON(http.StatusOK, overview)
}

func relativeDay(days int) string {
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "1 day overdue"
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	default:
		return fmt.Sprintf("%d days", days)
	}
}
