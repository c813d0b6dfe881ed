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
	"testing"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounts struct {
	vulnerabilities int64
	exceptions      int64
	requests        int64
}

func (s staticCounts) CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	return s.vulnerabilities, nil
}

func (s staticCounts) CountAssetScopedByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	return s.exceptions, nil
}

type staticRequestCounts struct {
	requests int64
}

func (s staticRequestCounts) CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	return s.requests, nil
}

func newTestEstimator(vulnerabilities, exceptions, requests int64) *costEstimator {
	counts := staticCounts{vulnerabilities: vulnerabilities, exceptions: exceptions}
	return newCostEstimator(counts, counts, staticRequestCounts{requests: requests})
}

func TestEstimateSmallAssetStaysUnderBudget(t *testing.T) {
	estimator := newTestEstimator(5, 3, 2)

	estimate, err := estimator.Estimate(nil, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(5), estimate.VulnerabilityCount)
	assert.Equal(t, int64(3), estimate.ExceptionCount)
	assert.Equal(t, int64(2), estimate.RequestCount)
	// 10 rows / 100 rows per second + 1
	assert.Equal(t, int64(1), estimate.EstimatedSeconds)
	assert.False(t, estimate.ExceedsBudget)
}

func TestEstimateEmptyAssetIsOneSecond(t *testing.T) {
	estimator := newTestEstimator(0, 0, 0)

	estimate, err := estimator.Estimate(nil, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(1), estimate.EstimatedSeconds)
	assert.False(t, estimate.ExceedsBudget)
}

func TestEstimateLargeAssetExceedsBudget(t *testing.T) {
	// 7000 rows / 100 rows per second + 1 = 71 seconds, budget is 60
	estimator := newTestEstimator(7000, 0, 0)

	estimate, err := estimator.Estimate(nil, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(71), estimate.EstimatedSeconds)
	assert.Equal(t, int64(60), estimate.BudgetSeconds)
	assert.True(t, estimate.ExceedsBudget)
}

func TestEstimateExactlyAtBudgetDoesNotExceed(t *testing.T) {
	// 5900 rows / 100 + 1 = 60 seconds == budget
	estimator := newTestEstimator(5900, 0, 0)

	estimate, err := estimator.Estimate(nil, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(60), estimate.EstimatedSeconds)
	assert.False(t, estimate.ExceedsBudget)
}

func TestEstimateThroughputOverride(t *testing.T) {
	t.Setenv("CASCADE_DELETE_THROUGHPUT", "1000")

	estimator := newTestEstimator(7000, 0, 0)

	estimate, err := estimator.Estimate(nil, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(8), estimate.EstimatedSeconds)
	assert.False(t, estimate.ExceedsBudget)
}
