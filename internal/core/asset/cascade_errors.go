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
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/database"
	"gorm.io/gorm"
)

type CascadeErrorKind string

const (
	// CascadeErrorNotFound - the asset does not exist. Nothing was changed.
	CascadeErrorNotFound CascadeErrorKind = "not-found"
	// CascadeErrorLocked - another deletion holds the row lock and the
	// bounded wait expired. Nothing was changed.
	CascadeErrorLocked CascadeErrorKind = "locked"
	// CascadeErrorTimeoutRisk - the pre-flight estimate exceeds the
	// transaction budget and the caller did not force. Nothing was
	// attempted.
	CascadeErrorTimeoutRisk CascadeErrorKind = "timeout-risk"
	// CascadeErrorConstraintViolation - the store rejected a delete step.
	// The whole transaction was rolled back.
	CascadeErrorConstraintViolation CascadeErrorKind = "constraint-violation"
	// CascadeErrorInternal - any other failure. The whole transaction was
	// rolled back.
	CascadeErrorInternal CascadeErrorKind = "internal"
)

type CascadeError struct {
	Kind       CascadeErrorKind `json:"kind"`
	AssetID    uuid.UUID        `json:"assetId"`
	AssetName  string           `json:"assetName,omitempty"`
	Cause      string           `json:"cause"`
	Suggestion string           `json:"suggestion"`
	// Detail carries the technical error string. Only exposed to
	// privileged callers.
	Detail string `json:"-"`
	// Estimate is set for timeout-risk errors so the caller can decide
	// between forcing and splitting the operation.
	Estimate *Estimate `json:"estimate,omitempty"`
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade deletion of asset %s failed (%s): %s", e.AssetID, e.Kind, e.Cause)
}

// HTTPStatus maps the error kind onto a response code for the API layer.
func (e *CascadeError) HTTPStatus() int {
	switch e.Kind {
	case CascadeErrorNotFound:
		return http.StatusNotFound
	case CascadeErrorLocked:
		return http.StatusConflict
	case CascadeErrorTimeoutRisk:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func newNotFoundError(assetID uuid.UUID) *CascadeError {
	return &CascadeError{
		Kind:       CascadeErrorNotFound,
		AssetID:    assetID,
		Cause:      "the asset does not exist",
		Suggestion: "verify the asset id - it may already have been deleted",
	}
}

func newLockedError(assetID uuid.UUID, err error) *CascadeError {
	return &CascadeError{
		Kind:       CascadeErrorLocked,
		AssetID:    assetID,
		Cause:      "another deletion of this asset is in progress",
		Suggestion: "wait for the running operation to finish and retry",
		Detail:     err.Error(),
	}
}

func newTimeoutRiskError(assetID uuid.UUID, assetName string, estimate *Estimate) *CascadeError {
	return &CascadeError{
		Kind:       CascadeErrorTimeoutRisk,
		AssetID:    assetID,
		AssetName:  assetName,
		Cause:      fmt.Sprintf("the deletion is estimated to take %d seconds, which exceeds the %d second transaction budget", estimate.EstimatedSeconds, estimate.BudgetSeconds),
		Suggestion: "retry with force=true to proceed anyway, or remove dependent records first",
		Estimate:   estimate,
	}
}

// classifyDeletionError wraps a raw store error from any step of the
// cascade. The transaction is already rolled back by the time callers see
// the result.
func classifyDeletionError(assetID uuid.UUID, assetName string, err error) *CascadeError {
	var cascadeErr *CascadeError
	if errors.As(err, &cascadeErr) {
		return cascadeErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newNotFoundError(assetID)
	}

	if database.IsLockNotAvailableError(err) {
		return newLockedError(assetID, err)
	}

	if database.IsConstraintViolationError(err) {
		return &CascadeError{
			Kind:       CascadeErrorConstraintViolation,
			AssetID:    assetID,
			AssetName:  assetName,
			Cause:      "the datastore rejected the deletion, all changes were rolled back",
			Suggestion: "contact an administrator",
			Detail:     err.Error(),
		}
	}

	if database.IsStatementTimeoutError(err) {
		// a forced run skipped the warning but the store aborted anyway -
		// surface it, never swallow it
		return &CascadeError{
			Kind:       CascadeErrorConstraintViolation,
			AssetID:    assetID,
			AssetName:  assetName,
			Cause:      "the datastore aborted the deletion because it exceeded the transaction timeout, all changes were rolled back",
			Suggestion: "remove dependent records in smaller portions first",
			Detail:     err.Error(),
		}
	}

	return &CascadeError{
		Kind:       CascadeErrorInternal,
		AssetID:    assetID,
		AssetName:  assetName,
		Cause:      "an unexpected error occurred, all changes were rolled back",
		Suggestion: "contact an administrator",
		Detail:     err.Error(),
	}
}
