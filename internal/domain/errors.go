package domain

import (
	"errors"
	"fmt"
	"time"
)

// AuthError means the provider rejected our credentials. Fatal, never retried.
type AuthError struct {
	StatusCode int
	Msg        string
	Err        error
}

func (e AuthError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("authentication failed (status %d)", e.StatusCode)
}

func (e AuthError) Unwrap() error { return e.Err }

// RateLimitedError means the provider returned 429; retried with backoff.
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

func (e RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e RateLimitedError) Unwrap() error { return e.Err }

// TransientError covers network failures and 5xx responses; retried with backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e TransientError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e TransientError) Unwrap() error { return e.Err }

// MalformedResponseError means a page could not be decoded as the documented
// contract. The affected page is logged and skipped when pagination can still
// make progress; otherwise the sub-range aborts.
type MalformedResponseError struct {
	Page int
	Err  error
}

func (e MalformedResponseError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("malformed response on page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e MalformedResponseError) Unwrap() error { return e.Err }

// PersistenceError means the destination store rejected a batch. The current
// run aborts and the checkpoint is left untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

func IsAuth(err error) bool {
	var target AuthError
	return errors.As(err, &target)
}

func IsRateLimited(err error) bool {
	var target RateLimitedError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target TransientError
	return errors.As(err, &target)
}

func IsMalformedResponse(err error) bool {
	var target MalformedResponseError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}
