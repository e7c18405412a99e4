package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// ServiceRuleController manages the service-interval table
type ServiceRuleController struct {
	rules *services.RuleService
}

func NewServiceRuleController(rules *services.RuleService) *ServiceRuleController {
	return &ServiceRuleController{rules: rules}
}

func (rc *ServiceRuleController) GetServiceRules(c *gin.Context) {
	rules, err := rc.rules.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve service rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (rc *ServiceRuleController) CreateServiceRule(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var input services.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}
	rule, err := rc.rules.Create(c.Request.Context(), scope, input)
	if err != nil {
		respondServiceError(c, err, "Failed to create service rule")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// UpdateServiceRule changes the interval of :serviceType, recomputing the
// next-due date of its clients. A new service_type in the body renames it.
func (rc *ServiceRuleController) UpdateServiceRule(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var input services.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid input: "+err.Error())
		return
	}
	rule, err := rc.rules.Update(c.Request.Context(), scope, c.Param("serviceType"), input)
	if err != nil {
		respondServiceError(c, err, "Failed to update service rule")
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (rc *ServiceRuleController) DeleteServiceRule(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	if err := rc.rules.Delete(c.Request.Context(), scope, c.Param("serviceType")); err != nil {
		respondServiceError(c, err, "Failed to delete service rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service rule deleted successfully"})
}
