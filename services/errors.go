package services

import "errors"

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrNotFound             = errors.New("record not found")
	ErrValidation           = errors.New("validation failed")
	ErrServiceTypeInUse     = errors.New("service type is in use by existing clients")
	ErrDuplicateServiceType = errors.New("service type already exists")
	ErrForbidden            = errors.New("forbidden")
	ErrInvitationInvalid    = errors.New("invitation is invalid or expired")
	ErrCycleInProgress      = errors.New("a followup cycle is already running")
	ErrChannelUnavailable   = errors.New("messaging channel is not configured")
	ErrRewriterUnavailable  = errors.New("rewriter is not configured")
	ErrActiveFollowupExists = errors.New("client already has an active followup")
)
