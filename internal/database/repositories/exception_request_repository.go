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

type exceptionRequestRepository struct {
	db core.DB
	database.Repository[uuid.UUID, models.ExceptionRequest, core.DB]
}

func NewExceptionRequestRepository(db core.DB) *exceptionRequestRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		err := db.AutoMigrate(&models.ExceptionRequest{})
		if err != nil {
			panic(err)
		}
	}

	return &exceptionRequestRepository{
		db:         db,
		Repository: database.NewGormRepository[uuid.UUID, models.ExceptionRequest](db),
	}
}

// CountByAssetID counts requests whose vulnerability belongs to the asset,
// regardless of workflow state.
func (repository *exceptionRequestRepository) CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	var count int64
	err := repository.GetDB(tx).Model(&models.ExceptionRequest{}).
		Joins("JOIN vulnerabilities ON vulnerabilities.id = exception_requests.vulnerability_id").
		Where("vulnerabilities.asset_id = ?", assetID).
		Count(&count).Error
	return count, err
}

func (repository *exceptionRequestRepository) FindIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repository.GetDB(tx).Model(&models.ExceptionRequest{}).
		Joins("JOIN vulnerabilities ON vulnerabilities.id = exception_requests.vulnerability_id").
		Where("vulnerabilities.asset_id = ?", assetID).
		Order("exception_requests.created_at ASC").
		Pluck("exception_requests.id", &ids).Error
	return ids, err
}
