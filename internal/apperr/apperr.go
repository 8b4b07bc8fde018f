// Package apperr classifies failures surfaced to API users.
package apperr

import (
	"errors"

	"github.com/ads-marketplace/tiktok-connector/internal/models"
)

type Kind string

const (
	KindAuthorization Kind = models.ErrorKindAuthorization
	KindValidation    Kind = models.ErrorKindValidation
	KindExternal      Kind = models.ErrorKindExternal
	KindUnexpected    Kind = models.ErrorKindUnexpected
)

// User-facing messages
const (
	MsgReconnect      = "Please reconnect your TikTok account"
	MsgSessionExpired = "Session expired. Please reconnect your TikTok account."
	MsgTokenExpired   = "Your session has expired. Please reconnect your TikTok account."
	MsgCreateFailed   = "Failed to create ad. Please try again."
	MsgMusicFailed    = "Failed to validate music. Please try again."
	MsgUnexpected     = "Internal server error"
)

// Error carries a user-safe message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Authorization(msg string, err error) *Error {
	return &Error{Kind: KindAuthorization, Message: msg, Err: err}
}

func External(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Message: msg, Err: err}
}

func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}

// KindOf returns the kind of err, KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgUnexpected
}
