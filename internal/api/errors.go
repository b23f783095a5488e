package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindTransport means the request never produced an HTTP response.
	KindTransport ErrorKind = iota + 1
	// KindStatus means the backend answered with a non-success status.
	KindStatus
	// KindDecode means a success response could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails. Message is safe to show to a user.
type Error struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindStatus && apiErr.StatusCode == status
}

// errorBody covers both shapes the backend uses for failures.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func messageFromBody(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(eb.Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(eb.Error); msg != "" {
		return msg
	}
	return fallback
}
