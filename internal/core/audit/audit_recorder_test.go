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

package audit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditLogRepository struct {
	mu      sync.Mutex
	created []models.DeletionAuditLog
	err     error
	done    chan struct{}
}

func (f *fakeAuditLogRepository) Create(tx core.DB, log *models.DeletionAuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if f.err != nil {
		return f.err
	}
	log.ID = uuid.New()
	f.created = append(f.created, *log)
	return nil
}

func TestRecordWritesOneRow(t *testing.T) {
	repository := &fakeAuditLogRepository{}
	recorder := NewRecorder(repository)

	assetID := uuid.New()
	batchID := uuid.New()
	vulnIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	id, err := recorder.Record(CascadeAudit{
		AssetID:          assetID,
		AssetName:        "web-01",
		Principal:        "admin@example.com",
		VulnerabilityIDs: vulnIDs,
		ExceptionIDs:     []uuid.UUID{uuid.New()},
		RequestIDs:       nil,
		Kind:             models.OperationKindBatchMember,
		BatchID:          &batchID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, id)

	require.Len(t, repository.created, 1)
	row := repository.created[0]
	assert.Equal(t, assetID, row.AssetID)
	assert.Equal(t, "web-01", row.AssetName)
	assert.Equal(t, "admin@example.com", row.Principal)
	assert.Equal(t, 3, row.VulnerabilityCount)
	assert.Equal(t, 1, row.ExceptionCount)
	assert.Equal(t, 0, row.RequestCount)
	assert.Equal(t, models.OperationKindBatchMember, row.OperationKind)
	require.NotNil(t, row.BatchID)
	assert.Equal(t, batchID, *row.BatchID)

	// id lists keep their order for forensic replay
	require.Len(t, row.VulnerabilityIDs, 3)
	for i, vulnID := range vulnIDs {
		assert.Equal(t, vulnID.String(), row.VulnerabilityIDs[i])
	}
}

func TestRecordPropagatesRepositoryError(t *testing.T) {
	repository := &fakeAuditLogRepository{err: errors.New("connection refused")}
	recorder := NewRecorder(repository)

	_, err := recorder.Record(CascadeAudit{AssetID: uuid.New()})
	assert.Error(t, err)
}

func TestRecordAsyncSwallowsFailures(t *testing.T) {
	// a failing audit write must never reach the deletion caller
	repository := &fakeAuditLogRepository{err: errors.New("connection refused"), done: make(chan struct{})}
	recorder := NewRecorder(repository)

	recorder.RecordAsync(CascadeAudit{AssetID: uuid.New(), Principal: "admin"})

	select {
	case <-repository.done:
	case <-time.After(time.Second):
		t.Fatal("audit write was never attempted")
	}
}
