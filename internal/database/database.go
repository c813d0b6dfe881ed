package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(host, user, password, dbname, port string) (*gorm.DB, error) {
	// https://github.com/go-gorm/postgres
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname),
	}), &gorm.Config{
		Logger: logger.Default,
	})

	if err != nil {
		return nil, err
	}

	return db, nil
}

func IsDuplicateKeyError(err error) bool {
	return strings.HasPrefix(err.Error(), "ERROR: duplicate key value violates unique constraint")
}

// IsLockNotAvailableError reports whether err is the postgres
// lock_not_available condition (55P03) - raised when lock_timeout
// expires while waiting for a row lock.
func IsLockNotAvailableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03"
	}
	return strings.Contains(err.Error(), "lock timeout") || strings.Contains(err.Error(), "55P03")
}

// IsConstraintViolationError reports whether err belongs to the postgres
// integrity constraint violation class (23xxx).
func IsConstraintViolationError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return strings.Contains(err.Error(), "violates foreign key constraint") ||
		strings.Contains(err.Error(), "violates unique constraint") ||
		strings.Contains(err.Error(), "violates check constraint")
}

// IsStatementTimeoutError reports whether the store aborted the statement
// on its own (query_canceled, 57014). A forced cascade that runs past the
// transaction budget can still hit this.
func IsStatementTimeoutError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "57014"
	}
	return strings.Contains(err.Error(), "canceling statement due to statement timeout")
}
