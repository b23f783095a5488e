package service

import (
	"errors"

	"bookingdesk/internal/api"
	"bookingdesk/internal/models"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNothingToCancel    = errors.New("no active booking to cancel")
	ErrStaleResponse      = errors.New("stale response discarded")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUnknownSlot        = errors.New("slot is not part of the grid")
)

// UserMessage maps an error from this package or the API client to the text
// shown to the user. It returns "" for nil and for discarded stale responses.
func UserMessage(err error) string {
	if err == nil || errors.Is(err, ErrStaleResponse) {
		return ""
	}

	var apiErr *api.Error
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return models.MsgNotLoggedIn
	case errors.Is(err, ErrNothingToCancel):
		return models.MsgNothingToCancel
	case errors.Is(err, ErrMissingCredentials):
		return "Email and password are required."
	case errors.Is(err, ErrUnknownSlot):
		return "Unknown time slot."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return models.MsgUnexpected
	}
}
