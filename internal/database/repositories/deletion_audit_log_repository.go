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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package repositories

import (
	"os"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/database"
	"github.com/schmalle/secman-sub012/internal/database/models"
)

// deletionAuditLogRepository is append-only. It deliberately does not
// expose the generic Update/Delete/Save surface.
type deletionAuditLogRepository struct {
	db         core.DB
	repository database.Repository[uuid.UUID, models.DeletionAuditLog, core.DB]
}

func NewDeletionAuditLogRepository(db core.DB) *deletionAuditLogRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		err := db.AutoMigrate(&models.DeletionAuditLog{})
		if err != nil {
			panic(err)
		}
	}

	return &deletionAuditLogRepository{
		db:         db,
		repository: database.NewGormRepository[uuid.UUID, models.DeletionAuditLog](db),
	}
}

func (repository *deletionAuditLogRepository) Create(tx core.DB, log *models.DeletionAuditLog) error {
	return repository.repository.Create(tx, log)
}

func (repository *deletionAuditLogRepository) FindByAssetID(assetID uuid.UUID) ([]models.DeletionAuditLog, error) {
	var logs []models.DeletionAuditLog
	err := repository.db.Where("asset_id = ?", assetID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

func (repository *deletionAuditLogRepository) FindByPrincipal(principal string) ([]models.DeletionAuditLog, error) {
	var logs []models.DeletionAuditLog
	err := repository.db.Where("principal = ?", principal).Order("created_at DESC").Find(&logs).Error
	return logs, err
}

func (repository *deletionAuditLogRepository) FindByBatchID(batchID uuid.UUID) ([]models.DeletionAuditLog, error) {
	var logs []models.DeletionAuditLog
	err := repository.db.Where("batch_id = ?", batchID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}
