package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorType represents the type of database error that occurred
type ErrorType string

const (
	DuplicateKeyError ErrorType = "duplicate_key"
	LockError         ErrorType = "lock"
	ConnectionError   ErrorType = "connection"
	ForeignKeyError   ErrorType = "foreign_key"
	ConstraintError   ErrorType = "constraint"
	NotFoundError     ErrorType = "not_found"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// MySQL server error numbers
const (
	myDuplicateEntry       = 1062
	myLockWaitTimeout      = 1205
	myDeadlock             = 1213
	myNoReferencedRow      = 1452
	myCheckConstraint      = 3819
	myTooManyConnections   = 1040
	myServerShutdown       = 1053
	myConnectionCountError = 1203
)

// ErrorClassifier classifies driver errors of both supported databases
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// Classify returns the type of error, or "" when it is not recognised
func (c *ErrorClassifier) Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return DuplicateKeyError
		case pgForeignKeyViolation:
			return ForeignKeyError
		case pgCheckViolation:
			return ConstraintError
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return LockError
		case pgQueryCanceled:
			return ConnectionError
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return ConnectionError
		}
		return ""
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myDuplicateEntry:
			return DuplicateKeyError
		case myNoReferencedRow:
			return ForeignKeyError
		case myCheckConstraint:
			return ConstraintError
		case myDeadlock, myLockWaitTimeout:
			return LockError
		case myTooManyConnections, myServerShutdown, myConnectionCountError:
			return ConnectionError
		}
		return ""
	}

	if c.IsConnectionError(err) {
		return ConnectionError
	}

	return ""
}

// IsDuplicateKeyError checks if the error is a unique constraint violation
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	return c.Classify(err) == DuplicateKeyError
}

// IsLockError checks if the error is a deadlock, serialization failure or lock timeout
func (c *ErrorClassifier) IsLockError(err error) bool {
	return c.Classify(err) == LockError
}

// IsConnectionError checks if the error is related to database connectivity
func (c *ErrorClassifier) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	var connectErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.As(err, &connectErr),
		errors.As(err, &netErr):
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == pgQueryCanceled
	}

	return false
}

// MapError translates a driver error into a domain error. notFound is returned for
// missing rows and foreign key violations, so callers choose which entity was missing.
func (c *ErrorClassifier) MapError(err error, notFound error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	switch c.Classify(err) {
	case NotFoundError, ForeignKeyError:
		return notFound
	case DuplicateKeyError:
		return fmt.Errorf("%w: %s: %s", errs.ErrConflict, operation, err.Error())
	case LockError:
		return fmt.Errorf("%w: %s: %s", errs.ErrConflict, operation, err.Error())
	case ConstraintError:
		return fmt.Errorf("%w: %s violates a ledger constraint: %s", errs.ErrInvalidAmount, operation, err.Error())
	case ConnectionError:
		return fmt.Errorf("%w: %s: %s", errs.ErrStorageUnavailable, operation, err.Error())
	default:
		return fmt.Errorf("%w: %s: %s", errs.ErrInternalServer, operation, err.Error())
	}
}
