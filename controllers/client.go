package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// ClientController handles client intake, editing and reminders
type ClientController struct {
	clients   *services.ClientService
	followups *services.FollowupService
	dueWindow int
	loc       *time.Location
}

func NewClientController(clients *services.ClientService, followups *services.FollowupService, dueWindow int, loc *time.Location) *ClientController {
	return &ClientController{clients: clients, followups: followups, dueWindow: dueWindow, loc: loc}
}

// CreateClient adds a client; next_due is derived from last_visit
func (cc *ClientController) CreateClient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var input services.ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, err := cc.clients.Create(c.Request.Context(), scope, input)
	if err != nil {
		respondServiceError(c, err, "Failed to create client")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GetClients lists the caller's and the team's clients
func (cc *ClientController) GetClients(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	clients, err := cc.clients.List(c.Request.Context(), scope, services.ClientFilter{
		Search:      c.Query("search"),
		ServiceType: c.Query("service_type"),
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve clients")
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (cc *ClientController) GetClient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	client, err := cc.clients.Get(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve client")
		return
	}
	c.JSON(http.StatusOK, client)
}

func (cc *ClientController) UpdateClient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input services.ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}

	client, err := cc.clients.Update(c.Request.Context(), scope, id, input)
	if err != nil {
		respondServiceError(c, err, "Failed to update client")
		return
	}
	c.JSON(http.StatusOK, client)
}

func (cc *ClientController) DeleteClient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := cc.clients.Delete(c.Request.Context(), scope, id); err != nil {
		respondServiceError(c, err, "Failed to delete client")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// GetDueClients lists clients due within ?days (default DUE_SOON_DAYS),
// overdue ones included.
func (cc *ClientController) GetDueClients(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	window := cc.dueWindow
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "days must be a non-negative integer")
			return
		}
		window = days
	}

	due, err := cc.clients.Due(c.Request.Context(), scope, utils.Today(time.Now(), cc.loc), window)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve due clients")
		return
	}
	c.JSON(http.StatusOK, due)
}

// SendReminder marks the client's followup sent and returns the message link
func (cc *ClientController) SendReminder(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input services.SendInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
			return
		}
	}

	result, err := cc.followups.SendReminder(c.Request.Context(), scope, id, input)
	if err != nil {
		respondServiceError(c, err, "Failed to send reminder")
		return
	}
	c.JSON(http.StatusOK, result)
}
