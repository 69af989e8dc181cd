package client

import (
	"context"
	"errors"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as the outcome label of weatherLookupsTotal.
const (
	ErrorCategoryConfig   ErrorCategory = "config"
	ErrorCategoryTimeout  ErrorCategory = "timeout"
	ErrorCategoryCanceled ErrorCategory = "canceled"
	ErrorCategoryNetwork  ErrorCategory = "network"
	ErrorCategoryProvider ErrorCategory = "provider"
	ErrorCategorySchema   ErrorCategory = "schema"
	ErrorCategoryUnknown  ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	// Cancellation comes from a superseded lookup, not a provider problem.
	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}

	switch KindOf(err) {
	case KindConfig:
		return ErrorCategoryConfig
	case KindTransport:
		return ErrorCategoryNetwork
	case KindProvider:
		return ErrorCategoryProvider
	case KindSchema:
		return ErrorCategorySchema
	}
	return ErrorCategoryUnknown
}
