package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a short machine-readable error class.
type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindValidation          Kind = "validation"
	KindConfig              Kind = "config"
	KindProvider            Kind = "provider"
	KindProviderUnreachable Kind = "provider_unreachable"
	KindNoActiveSession     Kind = "no_active_session"
	KindNegotiation         Kind = "negotiation"
)

// Error is the error type shared by the gateway, relay and coordinator.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrProvider            = &Error{Kind: KindProvider}
	ErrProviderUnreachable = &Error{Kind: KindProviderUnreachable}
	ErrNegotiation         = &Error{Kind: KindNegotiation}

	// ErrNoActiveSession is returned by session-scoped operations before a successful connect.
	ErrNoActiveSession = &Error{Kind: KindNoActiveSession, Message: "no active session"}
)

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func Provider(op string, status int, msg string) error {
	return &Error{Kind: KindProvider, Op: op, Status: status, Message: msg}
}

func Unreachable(op string, err error) error {
	return &Error{
		Kind:    KindProviderUnreachable,
		Op:      op,
		Message: "No response from HeyGen API. Check your network connection.",
		Err:     err,
	}
}

func Negotiation(op string, err error) error {
	return &Error{Kind: KindNegotiation, Op: op, Err: err}
}

// KindOf classifies err; errors outside the taxonomy are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var mc *MissingConfigError
	if errors.As(err, &mc) {
		return KindConfig
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the human-readable message carried by err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// MissingConfigError lists every required variable that was not set.
type MissingConfigError struct {
	Vars []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("Missing required environment variables: %s", strings.Join(e.Vars, ", "))
}
