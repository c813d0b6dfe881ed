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
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
)

const (
	// rows per second a single batched delete statement gets through,
	// measured against the reference deployment
	defaultDeleteThroughput = 100
	// hard transaction budget of the store
	defaultTxBudgetSeconds    = 60
	defaultLockTimeoutSeconds = 30
)

type Estimate struct {
	VulnerabilityCount int64 `json:"vulnerabilityCount"`
	ExceptionCount     int64 `json:"exceptionCount"`
	RequestCount       int64 `json:"requestCount"`

	EstimatedSeconds int64 `json:"estimatedSeconds"`
	BudgetSeconds    int64 `json:"budgetSeconds"`
	ExceedsBudget    bool  `json:"exceedsBudget"`
}

type estimatorVulnerabilityRepository interface {
	CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
}

type estimatorExceptionRepository interface {
	CountAssetScopedByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
}

type estimatorRequestRepository interface {
	CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
}

// costEstimator projects how long a cascade would run before anything
// destructive happens. Three index-backed COUNT queries, no row
// materialization - the pre-flight check must never become the bottleneck
// itself.
type costEstimator struct {
	vulnerabilityRepository estimatorVulnerabilityRepository
	exceptionRepository     estimatorExceptionRepository
	requestRepository       estimatorRequestRepository

	throughput    int64
	budgetSeconds int64
}

func newCostEstimator(vulnerabilityRepository estimatorVulnerabilityRepository, exceptionRepository estimatorExceptionRepository, requestRepository estimatorRequestRepository) *costEstimator {
	return &costEstimator{
		vulnerabilityRepository: vulnerabilityRepository,
		exceptionRepository:     exceptionRepository,
		requestRepository:       requestRepository,

		throughput:    envInt64("CASCADE_DELETE_THROUGHPUT", defaultDeleteThroughput),
		budgetSeconds: envInt64("CASCADE_TX_BUDGET_SECONDS", defaultTxBudgetSeconds),
	}
}

func (e *costEstimator) Estimate(tx core.DB, assetID uuid.UUID) (*Estimate, error) {
	vulnerabilityCount, err := e.vulnerabilityRepository.CountByAssetID(tx, assetID)
	if err != nil {
		return nil, err
	}

	exceptionCount, err := e.exceptionRepository.CountAssetScopedByAssetID(tx, assetID)
	if err != nil {
		return nil, err
	}

	requestCount, err := e.requestRepository.CountByAssetID(tx, assetID)
	if err != nil {
		return nil, err
	}

	total := vulnerabilityCount + exceptionCount + requestCount
	estimatedSeconds := total/e.throughput + 1

	return &Estimate{
		VulnerabilityCount: vulnerabilityCount,
		ExceptionCount:     exceptionCount,
		RequestCount:       requestCount,
		EstimatedSeconds:   estimatedSeconds,
		BudgetSeconds:      e.budgetSeconds,
		ExceedsBudget:      estimatedSeconds > e.budgetSeconds,
	}, nil
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
