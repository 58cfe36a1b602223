package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common domain errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Member errors
var (
	ErrMemberNotFound  = errors.New("member not found")
	ErrPackageNotFound = errors.New("package not found")
	ErrAlreadySent     = errors.New("already sent")
)

// Login errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials or phone")
	ErrDeviceNotBound     = errors.New("this phone is not authorized for this account")
	ErrCrossBinding       = errors.New("this device may not sign in to this account")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrSessionNotFound    = errors.New("session not found")
	ErrMasterOnly         = errors.New("only the master identity may perform this action")
)

// Store errors
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStaleSchema      = errors.New("store schema is out of date")
)

// ValidationError is a field-level form error. It blocks the submit and
// is never logged.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrorClass buckets store failures for user-facing handling
type ErrorClass int

const (
	ErrorClassNone ErrorClass = iota
	ErrorClassConnectivity
	ErrorClassStaleSchema
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorClassConnectivity:
		return "connectivity"
	case ErrorClassStaleSchema:
		return "stale_schema"
	}
	return "none"
}

const (
	pgUndefinedColumn = "42703"
	pgUndefinedTable  = "42P01"

	mysqlBadField    = 1054
	mysqlNoSuchTable = 1146
)

// ClassifyStoreError decides whether a store failure means the schema is
// behind the code (unknown column / table) or the store is just failing.
// Driver error codes are checked first; text matching is the fallback for
// drivers that only return messages.
func ClassifyStoreError(err error) ErrorClass {
	if err == nil {
		return ErrorClassNone
	}
	if errors.Is(err, ErrStaleSchema) {
		return ErrorClassStaleSchema
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUndefinedColumn || pgErr.Code == pgUndefinedTable {
			return ErrorClassStaleSchema
		}
		return ErrorClassConnectivity
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlBadField || myErr.Number == mysqlNoSuchTable {
			return ErrorClassStaleSchema
		}
		return ErrorClassConnectivity
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "schema cache"),
		strings.Contains(msg, "no such column"),
		strings.Contains(msg, "unknown column"),
		strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"):
		return ErrorClassStaleSchema
	}
	return ErrorClassConnectivity
}
