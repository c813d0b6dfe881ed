// Copyright (C) 2025 the secman authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package asset

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyRecordNotFound(t *testing.T) {
	assetID := uuid.New()

	cascadeErr := classifyDeletionError(assetID, "", gorm.ErrRecordNotFound)

	assert.Equal(t, CascadeErrorNotFound, cascadeErr.Kind)
	assert.Equal(t, assetID, cascadeErr.AssetID)
	assert.Equal(t, http.StatusNotFound, cascadeErr.HTTPStatus())
}

func TestClassifyLockNotAvailable(t *testing.T) {
	err := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}

	cascadeErr := classifyDeletionError(uuid.New(), "", err)

	assert.Equal(t, CascadeErrorLocked, cascadeErr.Kind)
	assert.Equal(t, http.StatusConflict, cascadeErr.HTTPStatus())
	assert.NotEmpty(t, cascadeErr.Suggestion)
}

func TestClassifyForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", Message: "update or delete on table violates foreign key constraint"}

	cascadeErr := classifyDeletionError(uuid.New(), "web-01", err)

	assert.Equal(t, CascadeErrorConstraintViolation, cascadeErr.Kind)
	assert.Equal(t, "web-01", cascadeErr.AssetName)
	assert.Contains(t, cascadeErr.Cause, "rolled back")
	assert.Equal(t, http.StatusInternalServerError, cascadeErr.HTTPStatus())
}

func TestClassifyStatementTimeout(t *testing.T) {
	// a forced run skipped the pre-flight warning but the store aborted
	// the transaction anyway - surfaced, not swallowed
	err := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}

	cascadeErr := classifyDeletionError(uuid.New(), "", err)

	assert.Equal(t, CascadeErrorConstraintViolation, cascadeErr.Kind)
	assert.Contains(t, cascadeErr.Cause, "transaction timeout")
}

func TestClassifyUnknownError(t *testing.T) {
	cascadeErr := classifyDeletionError(uuid.New(), "", errors.New("connection reset by peer"))

	assert.Equal(t, CascadeErrorInternal, cascadeErr.Kind)
	assert.Equal(t, "connection reset by peer", cascadeErr.Detail)
}

func TestClassifyPassesCascadeErrorThrough(t *testing.T) {
	assetID := uuid.New()
	original := newTimeoutRiskError(assetID, "db-01", &Estimate{
		VulnerabilityCount: 7000,
		EstimatedSeconds:   71,
		BudgetSeconds:      60,
		ExceedsBudget:      true,
	})

	cascadeErr := classifyDeletionError(assetID, "", original)

	assert.Same(t, original, cascadeErr)
	assert.Equal(t, CascadeErrorTimeoutRisk, cascadeErr.Kind)
	assert.Equal(t, http.StatusPreconditionFailed, cascadeErr.HTTPStatus())
	assert.NotNil(t, cascadeErr.Estimate)
}
