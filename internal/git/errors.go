package git

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNothingToSnapshot is returned by Snapshot when the working tree and
// index carry no uncommitted changes. Callers treat it as success-with-nothing.
var ErrNothingToSnapshot = errors.New("nothing to snapshot")

// Base typed git errors enabling structured classification without string parsing upstream.

type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op  string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %v", e.Op, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ConflictError reports a failed three-way merge with per-path detail.
type ConflictError struct {
	Entries []ConflictEntry
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge produced %d conflicting path(s)", len(e.Entries))
}

// UnknownAnalysisError marks a merge analysis outcome no update path handles.
// Unreachable with a well-behaved backend.
type UnknownAnalysisError struct {
	Analysis MergeAnalysis
}

func (e *UnknownAnalysisError) Error() string {
	return fmt.Sprintf("unknown merge analysis result: %s", e.Analysis)
}

// classifyFetchError wraps fetch failures into typed variants when possible.
func classifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "auth"):
		return &AuthError{Op: "fetch", Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: "fetch", Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection refused") || strings.Contains(l, "connection reset") || strings.Contains(l, "no route to host"):
		return &NetworkError{Op: "fetch", Err: err}
	default:
		return fmt.Errorf("fetch: %w", err)
	}
}
