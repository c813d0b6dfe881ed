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

type vulnerabilityExceptionRepository struct {
	db core.DB
	database.Repository[uuid.UUID, models.VulnerabilityException, core.DB]
}

func NewVulnerabilityExceptionRepository(db core.DB) *vulnerabilityExceptionRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		err := db.AutoMigrate(&models.VulnerabilityException{})
		if err != nil {
			panic(err)
		}
	}

	return &vulnerabilityExceptionRepository{
		db:         db,
		Repository: database.NewGormRepository[uuid.UUID, models.VulnerabilityException](db),
	}
}

// CountAssetScopedByAssetID only counts exceptions bound to the asset
// itself. IP and product scoped exceptions are global and never part of a
// cascade, so they never show up here.
func (repository *vulnerabilityExceptionRepository) CountAssetScopedByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	var count int64
	err := repository.GetDB(tx).Model(&models.VulnerabilityException{}).
		Where("scope = ? AND asset_id = ?", models.ExceptionScopeAsset, assetID).
		Count(&count).Error
	return count, err
}

func (repository *vulnerabilityExceptionRepository) FindAssetScopedIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repository.GetDB(tx).Model(&models.VulnerabilityException{}).
		Where("scope = ? AND asset_id = ?", models.ExceptionScopeAsset, assetID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
