package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

const contextScope = "scope"

func scopeFrom(c *gin.Context) (services.Scope, bool) {
	v, exists := c.Get(contextScope)
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Profile not found in context")
		return services.Scope{}, false
	}
	scope, ok := v.(services.Scope)
	if !ok {
		utils.RespondWithError(c, http.StatusInternalServerError, utils.ErrCodeInternal, "Invalid profile in context")
		return services.Scope{}, false
	}
	return scope, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service errors onto HTTP statuses. Messages of
// user-actionable errors are passed through; anything else is logged and
// reported generically.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, http.StatusNotFound, utils.ErrCodeNotFound, "Client not found")
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, utils.ErrCodeNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, http.StatusForbidden, utils.ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrServiceTypeInUse):
		utils.RespondWithError(c, http.StatusConflict, utils.ErrCodeInUse, err.Error())
	case errors.Is(err, services.ErrDuplicateServiceType):
		utils.RespondWithError(c, http.StatusConflict, utils.ErrCodeDuplicate, err.Error())
	case errors.Is(err, services.ErrInvitationInvalid):
		utils.RespondWithError(c, http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrCycleInProgress):
		utils.RespondWithError(c, http.StatusConflict, utils.ErrCodeCycleInProcess, err.Error())
	case errors.Is(err, services.ErrChannelUnavailable), errors.Is(err, services.ErrRewriterUnavailable):
		utils.RespondWithError(c, http.StatusServiceUnavailable, utils.ErrCodeUnavailable, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		utils.RespondWithError(c, http.StatusInternalServerError, utils.ErrCodeInternal, fallback)
	}
}
