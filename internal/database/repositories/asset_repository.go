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
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/database"
	"github.com/schmalle/secman-sub012/internal/database/models"
	"gorm.io/gorm/clause"
)

type assetRepository struct {
	db core.DB
	database.Repository[uuid.UUID, models.Asset, core.DB]
}

func NewAssetRepository(db core.DB) *assetRepository {
	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		err := db.AutoMigrate(&models.Asset{})
		if err != nil {
			panic(err)
		}
	}

	return &assetRepository{
		db:         db,
		Repository: database.NewGormRepository[uuid.UUID, models.Asset](db),
	}
}

func (repository *assetRepository) All() ([]models.Asset, error) {
	var assets []models.Asset
	err := repository.db.Order("created_at DESC").Find(&assets).Error
	return assets, err
}

// FindForUpdate takes an exclusive row lock on the asset. The lock is held
// until tx ends. lockTimeoutSeconds bounds the wait - when another
// transaction holds the lock longer than that, postgres raises
// lock_not_available (55P03) instead of blocking forever.
func (repository *assetRepository) FindForUpdate(tx core.DB, id uuid.UUID, lockTimeoutSeconds int) (models.Asset, error) {
	var asset models.Asset

	// SET LOCAL scopes the timeout to the surrounding transaction
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%ds'", lockTimeoutSeconds)).Error; err != nil {
		return asset, err
	}

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&asset).Error
	return asset, err
}
