package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// AuthController resolves the authenticated account into a local profile.
// Sign-in itself happens at the hosted auth provider.
type AuthController struct {
	teams *services.TeamService
}

func NewAuthController(teams *services.TeamService) *AuthController {
	return &AuthController{teams: teams}
}

// LoadProfile must run after utils.AuthMiddleware. It provisions the profile
// on first use and stores the caller's scope on the context.
func (ac *AuthController) LoadProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := utils.AccountID(c)
		if !ok {
			utils.RespondWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Account ID not found in context")
			return
		}
		profile, err := ac.teams.EnsureProfile(c.Request.Context(), accountID, c.GetString(utils.ContextEmail))
		if err != nil {
			log.Error().Err(err).Str("account_id", accountID.String()).Msg("Failed to load profile")
			utils.RespondWithError(c, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load profile")
			return
		}
		c.Set(contextScope, services.ScopeFor(profile))
		c.Set("profile", profile)
		c.Next()
	}
}

// Me returns the caller's profile
func (ac *AuthController) Me(c *gin.Context) {
	profile, exists := c.Get("profile")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Profile not found in context")
		return
	}
	c.JSON(http.StatusOK, profile)
}
