package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

type TeamController struct {
	teams *services.TeamService
}

func NewTeamController(teams *services.TeamService) *TeamController {
	return &TeamController{teams: teams}
}

type createTeamInput struct {
	Name string `json:"name" binding:"required"`
}

type acceptInvitationInput struct {
	Token string `json:"token" binding:"required"`
}

func (tc *TeamController) GetTeam(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	team, err := tc.teams.Team(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve team")
		return
	}
	c.JSON(http.StatusOK, team)
}

func (tc *TeamController) CreateTeam(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var input createTeamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}
	team, err := tc.teams.CreateTeam(c.Request.Context(), scope, input.Name)
	if err != nil {
		respondServiceError(c, err, "Failed to create team")
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (tc *TeamController) GetMembers(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	members, err := tc.teams.Members(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve team members")
		return
	}
	c.JSON(http.StatusOK, members)
}

func (tc *TeamController) RemoveMember(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := tc.teams.RemoveMember(c.Request.Context(), scope, id); err != nil {
		respondServiceError(c, err, "Failed to remove team member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func (tc *TeamController) GetInvitations(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	invitations, err := tc.teams.PendingInvitations(c.Request.Context(), scope)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve invitations")
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// CreateInvitation returns the invitation token once; it is not stored in
// plain text and cannot be retrieved later.
func (tc *TeamController) CreateInvitation(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var input services.InvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}
	inv, err := tc.teams.CreateInvitation(c.Request.Context(), scope, input)
	if err != nil {
		respondServiceError(c, err, "Failed to create invitation")
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (tc *TeamController) AcceptInvitation(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input acceptInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}
	profile, err := tc.teams.AcceptInvitation(c.Request.Context(), scope, id, input.Token)
	if err != nil {
		respondServiceError(c, err, "Failed to accept invitation")
		return
	}
	c.JSON(http.StatusOK, profile)
}
