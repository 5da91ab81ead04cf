package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable class reported to tool callers.
type ErrorKind string

const (
	KindBackendUnavailable ErrorKind = "BACKEND_UNAVAILABLE"
	KindLoginRequired      ErrorKind = "LOGIN_REQUIRED"
	KindResourceNotFound   ErrorKind = "RESOURCE_NOT_FOUND"
	KindUnknownTool        ErrorKind = "UNKNOWN_TOOL"
	KindInvalidArgument    ErrorKind = "INVALID_ARGUMENT"
	KindUnclassified       ErrorKind = "UNCLASSIFIED"
)

var (
	// ErrSymbolNotFound is returned by a BackingClient when a symbol has no company page.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNotLoggedIn is returned by a BackingClient for operations that need an authenticated session.
	ErrNotLoggedIn = errors.New("not logged in")
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(kind ErrorKind, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// Wrap attaches kind and op to err unless err already carries a kind.
func Wrap(kind ErrorKind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Kind:    existing.Kind,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
		}
	}
	return E(kind, op, "", err)
}

// KindOf classifies err. Anything not recognised is KindUnclassified.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Kind != "" {
		return domainErr.Kind
	}
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		return KindResourceNotFound
	case errors.Is(err, ErrNotLoggedIn):
		return KindLoginRequired
	default:
		return KindUnclassified
	}
}

// Hint returns remediation text for a kind, or "" when there is none.
func Hint(kind ErrorKind) string {
	switch kind {
	case KindBackendUnavailable:
		return "The scraping backend could not start. Check CHROME_PATH and SCREENER_URL, then retry."
	case KindLoginRequired:
		return "Set SCREENER_EMAIL and SCREENER_PASSWORD and restart the server to enable screening."
	case KindResourceNotFound:
		return "Verify the symbol is a valid NSE/BSE ticker (e.g. INFY, TCS, RELIANCE)."
	case KindUnknownTool:
		return "List the available tools and retry with one of them."
	default:
		return ""
	}
}

// PanicError carries a recovered panic and the stack where it happened.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
