package utils

import "github.com/gin-gonic/gin"

const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInUse          = "IN_USE"
	ErrCodeDuplicate      = "DUPLICATE"
	ErrCodeValidation     = "VALIDATION_FAILED"
	ErrCodeInternal       = "INTERNAL_SERVER_ERROR"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeCycleInProcess = "CYCLE_IN_PROGRESS"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError sends a JSON error response and aborts the handler chain.
func RespondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}
