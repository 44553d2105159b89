package errors

import (
	"errors"
	"fmt"
)

// PollFailureKind classifies why a status poll cycle was skipped.
type PollFailureKind string

const (
	PollNetworkFailure        PollFailureKind = "network_failure"
	PollInvalidResponseFormat PollFailureKind = "invalid_response_format"
	PollHTTPError             PollFailureKind = "http_error"
	PollParseError            PollFailureKind = "parse_error"
)

// PollFailure is a transient status check failure. It never leaves the watcher.
type PollFailure struct {
	Kind       PollFailureKind
	StatusCode int
	Err        error
}

func (e *PollFailure) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *PollFailure) Unwrap() error {
	return e.Err
}

func NewPollFailure(kind PollFailureKind, err error) *PollFailure {
	return &PollFailure{Kind: kind, Err: err}
}

func HTTPPollFailure(statusCode int) *PollFailure {
	return &PollFailure{Kind: PollHTTPError, StatusCode: statusCode}
}

// PollFailureKindOf returns the failure kind of err, or "" when err is not a PollFailure.
func PollFailureKindOf(err error) PollFailureKind {
	var failure *PollFailure

	if errors.As(err, &failure) {
		return failure.Kind
	}

	return ""
}
