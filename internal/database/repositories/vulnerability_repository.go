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

type vulnerabilityRepository struct {
	db core.DB
	database.Repository[uuid.UUID, models.Vulnerability, core.DB]
}

func NewVulnerabilityRepository(db core.DB) *vulnerabilityRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		err := db.AutoMigrate(&models.Vulnerability{})
		if err != nil {
			panic(err)
		}
	}

	return &vulnerabilityRepository{
		db:         db,
		Repository: database.NewGormRepository[uuid.UUID, models.Vulnerability](db),
	}
}

func (repository *vulnerabilityRepository) CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error) {
	var count int64
	err := repository.GetDB(tx).Model(&models.Vulnerability{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error
	return count, err
}

func (repository *vulnerabilityRepository) FindIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repository.GetDB(tx).Model(&models.Vulnerability{}).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
