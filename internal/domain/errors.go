package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for news API operations
var (
	// ErrServerOffline indicates the news API could not be reached
	ErrServerOffline = errors.New("news API is unreachable")

	// ErrUnexpectedStatus indicates the news API answered with a non-success status
	ErrUnexpectedStatus = errors.New("unexpected status from news API")

	// ErrMalformedResponse indicates the payload did not have the expected shape
	ErrMalformedResponse = errors.New("malformed response from news API")

	// ErrCacheClear indicates the cache invalidation endpoint failed
	ErrCacheClear = errors.New("cache invalidation failed")
)

// User-facing messages. Failure detail goes to the log, never to the screen.
const (
	LoadFailedMessage       = "Unable to load news. Please try again later."
	CacheClearFailedMessage = "Unable to clear cache. Please try again later."
)

// StatusError carries the status code and body of a non-success response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Is lets errors.Is(err, ErrUnexpectedStatus) match any StatusError
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// FailureKind classifies a failure for operator logs and metrics
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	NetworkFailure
	ServerFailure
	MalformedResponse
	CacheClearFailure
)

func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case ServerFailure:
		return "server"
	case MalformedResponse:
		return "malformed"
	case CacheClearFailure:
		return "cache_clear"
	default:
		return "unknown"
	}
}

// Classify maps an error to its FailureKind. Cache-clear failures win over
// the underlying transport cause.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureUnknown
	case errors.Is(err, ErrCacheClear):
		return CacheClearFailure
	case errors.Is(err, ErrServerOffline):
		return NetworkFailure
	case errors.Is(err, ErrUnexpectedStatus):
		return ServerFailure
	case errors.Is(err, ErrMalformedResponse):
		return MalformedResponse
	default:
		return FailureUnknown
	}
}

// StatusCode extracts the HTTP status from err, or 0 when there is none
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
