package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/services"
)

type PersonaliseController struct {
	personalizer *services.Personalizer
}

func NewPersonaliseController(p *services.Personalizer) *PersonaliseController {
	return &PersonaliseController{personalizer: p}
}

type personaliseRequest struct {
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables"`
}

// Personalise rewrites a message template. A rewrite that drops a
// placeholder still answers 200 with success=false and the original text.
func (pc *PersonaliseController) Personalise(c *gin.Context) {
	var req personaliseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template is required and must be a string"})
		return
	}

	result, err := pc.personalizer.Personalise(c.Request.Context(), req.Template, req.Variables)
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template is required and must be a string"})
		return
	case errors.Is(err, services.ErrRewriterUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI API key not configured"})
		return
	case err != nil:
		log.Error().Err(err).Msg("Personalise failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
