// Package apperr defines the failure kinds surfaced at the request boundary.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindUpstreamAuth
	KindUpstreamProvision
	KindNotConfigured
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindUnauthorized:
		return "Unauthorized"
	case KindUpstreamAuth:
		return "UpstreamAuthError"
	case KindUpstreamProvision:
		return "UpstreamProvisionError"
	case KindNotConfigured:
		return "NotConfigured"
	case KindStore:
		return "StoreError"
	default:
		return "Internal"
	}
}

// Error is a classified failure. Msg is safe to show to clients; Detail and
// Err are for server-side logs only.
type Error struct {
	Kind   Kind
	Op     string
	Msg    string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(op, msg string) error {
	return &Error{Kind: KindBadRequest, Op: op, Msg: msg}
}

func Unauthorized(op, msg string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: msg}
}

// UpstreamAuth wraps a failed OAuth exchange or identity fetch. detail keeps
// the upstream response body for diagnostics.
func UpstreamAuth(op, msg, detail string, err error) error {
	return &Error{Kind: KindUpstreamAuth, Op: op, Msg: msg, Detail: detail, Err: err}
}

func UpstreamProvision(op, msg, detail string, err error) error {
	return &Error{Kind: KindUpstreamProvision, Op: op, Msg: msg, Detail: detail, Err: err}
}

func NotConfigured(op, msg string) error {
	return &Error{Kind: KindNotConfigured, Op: op, Msg: msg}
}

func Store(op, msg string, err error) error {
	return &Error{Kind: KindStore, Op: op, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Internal server error"
}

func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

func Status(kind Kind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func StatusOf(err error) int {
	return Status(KindOf(err))
}
