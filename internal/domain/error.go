package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrOrderNotPaid       = errors.New("order not paid")
	ErrBadSignature       = errors.New("notification signature mismatch")
	ErrInvalidExecContext = errors.New("invalid query executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
