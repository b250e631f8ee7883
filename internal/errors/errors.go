package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller has no valid session or token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimit is returned when the GitHub API budget for a token is exhausted
	ErrRateLimit = errors.New("github api rate limit exceeded")

	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input parameters")

	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrGitHubAPI is returned when GitHub API returns an error
	ErrGitHubAPI = errors.New("github api error")

	// ErrDatabase is returned when a database operation fails
	ErrDatabase = errors.New("database error")
)

// UpstreamError represents a failed GitHub REST or GraphQL call.
// StatusCode is zero when the failure happened before a response arrived.
type UpstreamError struct {
	Op         string
	Request    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github api operation %s failed for request %s: %v", e.Op, e.Request, e.Err)
	}
	return fmt.Sprintf("github api operation %s failed for request %s with status %d: %v", e.Op, e.Request, e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new UpstreamError
func NewUpstreamError(op, request string, status int, body string, err error) error {
	if err == nil {
		err = ErrGitHubAPI
	}
	return &UpstreamError{
		Op:         op,
		Request:    request,
		StatusCode: status,
		Body:       body,
		Err:        err,
	}
}

// PartialDataError records that a metric was computed from a fallback source
// because one of its upstream sources was unavailable.
type PartialDataError struct {
	Metric string
	Source string
	Err    error
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("metric %s computed without %s: %v", e.Metric, e.Source, e.Err)
}

func (e *PartialDataError) Unwrap() error {
	return e.Err
}

// NewPartialDataError creates a new PartialDataError
func NewPartialDataError(metric, source string, err error) *PartialDataError {
	return &PartialDataError{
		Metric: metric,
		Source: source,
		Err:    err,
	}
}

// DatabaseError represents a database operation error
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database operation %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDatabase so callers can match the category.
func (e *DatabaseError) Is(target error) bool {
	return target == ErrDatabase
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(op string, err error) error {
	return &DatabaseError{
		Op:  op,
		Err: err,
	}
}

// StatusOf returns the upstream HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode
	}
	return 0
}

// Is checks if the target error matches any of our custom errors
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
