package types

import "errors"

// Domain errors shared across components
var (
	// Query boundary errors
	ErrInvalidPosition = errors.New("position line and column must be >= 1")
	ErrMissingURI      = errors.New("file URI is required")

	// Diagnostic validation errors
	ErrEmptyMessage    = errors.New("diagnostic message cannot be empty")
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")

	// Analyzer errors
	ErrAnalyzerUnavailable = errors.New("analyzer executable is not available")
)
