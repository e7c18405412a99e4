package controllers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// SchedulerController exposes the daily cycle to external schedulers.
type SchedulerController struct {
	runner services.CycleRunner
	token  string
	loc    *time.Location
	now    func() time.Time
}

func NewSchedulerController(runner services.CycleRunner, token string, loc *time.Location) *SchedulerController {
	return &SchedulerController{runner: runner, token: token, loc: loc, now: time.Now}
}

// RunCycle runs the daily cycle. ?phase=create|overdue limits it to one
// phase and ?date=YYYY-MM-DD overrides today.
func (sc *SchedulerController) RunCycle(c *gin.Context) {
	if sc.token != "" {
		presented := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(sc.token)) != 1 {
			utils.RespondWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid scheduler token")
			return
		}
	}

	phases, err := services.ParsePhase(c.Query("phase"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error())
		return
	}
	today := utils.Today(sc.now(), sc.loc)
	if raw := c.Query("date"); raw != "" {
		if today, err = utils.ParseDate(raw); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	result, err := sc.runner.RunDailyCycle(c.Request.Context(), today, phases...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrCycleInProgress) {
			status = http.StatusConflict
		} else {
			log.Error().Err(err).Msg("Scheduler trigger failed to start cycle")
		}
		c.JSON(status, gin.H{
			"success":     false,
			"timestamp":   sc.now().UTC(),
			"duration_ms": 0,
			"error":       err.Error(),
		})
		return
	}

	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
