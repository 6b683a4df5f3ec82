package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind classifies why an analysis step failed.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindCredential        Kind = "credential"
	KindNetwork           Kind = "network"
	KindTimeout           Kind = "timeout"
	KindCanceled          Kind = "canceled"
	KindMalformedResponse Kind = "malformed_response"
	KindStorage           Kind = "storage"
)

// Error is the failure type returned by the analyzer and the orchestrator.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "generate_section_breakdown".
	Op string
	// StatusCode is the HTTP status reported by the model API, or 0.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the underlying failure text without the op/kind prefix.
func (e *Error) Message() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// NewError wraps err with a kind and op.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return ""
}

// classifyCallError maps a GenerateContent failure onto an *Error.
func classifyCallError(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	}

	code, message := apiErrorDetails(err)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &Error{Kind: KindCredential, Op: op, StatusCode: code, Err: err}
	case strings.Contains(strings.ToLower(message), "api key"):
		return &Error{Kind: KindCredential, Op: op, StatusCode: code, Err: err}
	}
	return &Error{Kind: KindNetwork, Op: op, StatusCode: code, Err: err}
}

func apiErrorDetails(err error) (int, string) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message
	}
	return 0, ""
}
