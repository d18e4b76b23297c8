// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrTransport marks network-level failures (DNS, connection, timeout).
// These are fatal for a resolution, unlike failure statuses.
var ErrTransport = errors.New("gazetteer transport failure")

// LookupError represents a classified gazetteer failure.
type LookupError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies lookup failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection or request timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound endpoint or place not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest malformed request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network failure or unavailable service.
	ErrorTypeNetworkError
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network"
	default:
		return "unknown"
	}
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err comes from a rate limit.
func IsRateLimitError(err error) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError reports whether err comes from a timeout.
func IsTimeoutError(err error) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsTransportError reports whether err is a network-level failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// ClassifyTransportError wraps a client.Do failure so it matches ErrTransport.
func ClassifyTransportError(msg string, err error) *LookupError {
	typ := ErrorTypeNetworkError

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		typ = ErrorTypeTimeout
	}

	return &LookupError{
		Type:    typ,
		Message: msg,
		Err:     fmt.Errorf("%w: %w", ErrTransport, err),
	}
}

// ClassifyHTTPError classifies a failure status.
func ClassifyHTTPError(statusCode int) *LookupError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &LookupError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden:
		return &LookupError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &LookupError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound:
		return &LookupError{
			Type:    ErrorTypeNotFound,
			Message: "not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &LookupError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &LookupError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
