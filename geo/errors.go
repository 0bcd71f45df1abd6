// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// LookupError represents a postcode lookup failure.
type LookupError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies postcode lookup failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotFound the postcode is invalid or unknown to the service.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the request was malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeRateLimit the service is throttling us.
	ErrorTypeRateLimit
	// ErrorTypeTimeout the request timed out.
	ErrorTypeTimeout
	// ErrorTypeNetwork the service is unreachable or erroring.
	ErrorTypeNetwork
)

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error means the postcode does not exist.
// A not-found answer is definitive and safe to cache.
func IsNotFound(err error) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Type == ErrorTypeNotFound
	}

	return false
}

// IsServiceFailure reports whether the error is a transient service
// problem (timeout, rate limit, network) rather than a definitive
// negative answer.
func IsServiceFailure(err error) bool {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		switch lookupErr.Type {
		case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeUnknown:
			return true
		case ErrorTypeNotFound, ErrorTypeInvalidRequest:
			return false
		}
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection refused")
}

// classifyHTTPError maps an HTTP status code to a lookup error.
func classifyHTTPError(statusCode int) *LookupError {
	switch statusCode {
	case http.StatusNotFound:
		return &LookupError{
			Type:    ErrorTypeNotFound,
			Message: "postcode not found",
		}
	case http.StatusBadRequest:
		return &LookupError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusTooManyRequests:
		return &LookupError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &LookupError{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &LookupError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
