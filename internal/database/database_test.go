package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsLockNotAvailableError(t *testing.T) {
	assert.True(t, IsLockNotAvailableError(&pgconn.PgError{Code: "55P03"}))
	// also matched when the driver error is wrapped
	assert.True(t, IsLockNotAvailableError(fmt.Errorf("delete asset: %w", &pgconn.PgError{Code: "55P03"})))
	assert.False(t, IsLockNotAvailableError(errors.New("connection refused")))
}

func TestIsConstraintViolationError(t *testing.T) {
	assert.True(t, IsConstraintViolationError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsConstraintViolationError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsConstraintViolationError(errors.New("ERROR: update or delete on table \"vulnerabilities\" violates foreign key constraint")))
	assert.False(t, IsConstraintViolationError(&pgconn.PgError{Code: "55P03"}))
}

func TestIsStatementTimeoutError(t *testing.T) {
	assert.True(t, IsStatementTimeoutError(&pgconn.PgError{Code: "57014"}))
	assert.True(t, IsStatementTimeoutError(errors.New("pq: canceling statement due to statement timeout")))
	assert.False(t, IsStatementTimeoutError(errors.New("something else")))
}
