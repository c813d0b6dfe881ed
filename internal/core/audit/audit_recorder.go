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
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/database/models"
	"github.com/schmalle/secman-sub012/internal/monitoring"
)

type deletionAuditLogRepository interface {
	Create(tx core.DB, log *models.DeletionAuditLog) error
}

// CascadeAudit is the payload the deletion service hands over after a
// commit. The recorder turns it into one append-only row.
type CascadeAudit struct {
	AssetID   uuid.UUID
	AssetName string
	Principal string

	VulnerabilityIDs []uuid.UUID
	ExceptionIDs     []uuid.UUID
	RequestIDs       []uuid.UUID

	Kind    models.OperationKind
	BatchID *uuid.UUID
}

type recorder struct {
	repository deletionAuditLogRepository
}

func NewRecorder(repository deletionAuditLogRepository) *recorder {
	return &recorder{
		repository: repository,
	}
}

// Record writes exactly one audit row in its own unit of work - passing a
// nil tx makes the repository use the base connection, so a slow audit
// write never sits inside the lock-held deletion window and a failing one
// never rolls the deletion back.
func (r *recorder) Record(entry CascadeAudit) (uuid.UUID, error) {
	log := models.DeletionAuditLog{
		AssetID:   entry.AssetID,
		AssetName: entry.AssetName,
		Principal: entry.Principal,

		VulnerabilityCount: len(entry.VulnerabilityIDs),
		ExceptionCount:     len(entry.ExceptionIDs),
		RequestCount:       len(entry.RequestIDs),

		VulnerabilityIDs: uuidStrings(entry.VulnerabilityIDs),
		ExceptionIDs:     uuidStrings(entry.ExceptionIDs),
		RequestIDs:       uuidStrings(entry.RequestIDs),

		OperationKind: entry.Kind,
		BatchID:       entry.BatchID,
	}

	if err := r.repository.Create(nil, &log); err != nil {
		return uuid.UUID{}, err
	}

	monitoring.AuditWriteAmount.Inc()
	return log.ID, nil
}

// RecordAsync fires the audit write without blocking the caller. The
// deletion already committed - a failed audit write is a compliance gap,
// not a deletion failure, so it is logged and counted but never surfaced.
func (r *recorder) RecordAsync(entry CascadeAudit) {
	go func() {
		if _, err := r.Record(entry); err != nil {
			slog.Error("could not write deletion audit log", "err", err, "assetId", entry.AssetID, "principal", entry.Principal)
			monitoring.AuditWriteFailedAmount.Inc()
		}
	}()
}

func uuidStrings(ids []uuid.UUID) pq.StringArray {
	strs := make(pq.StringArray, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strs
}
