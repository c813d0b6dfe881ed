package models

import (
	"github.com/google/uuid"
)

type ExceptionScope string

const (
	// ExceptionScopeAsset binds the exception to a single asset. These
	// rows are removed when the asset is deleted.
	ExceptionScopeAsset ExceptionScope = "asset"
	// ExceptionScopeIP matches by network address pattern across all
	// assets. Never touched by asset deletion.
	ExceptionScopeIP ExceptionScope = "ip"
	// ExceptionScopeProduct matches by product/version pattern across
	// all assets. Never touched by asset deletion.
	ExceptionScopeProduct ExceptionScope = "product"
)

type VulnerabilityException struct {
	Model
	Scope ExceptionScope `json:"scope" gorm:"type:text;not null;index;"`

	// AssetID is a weak reference - a plain uuid column without a foreign
	// key constraint. The store must not cascade here, because it could
	// not tell asset-scoped rows apart from the global scopes. Only the
	// deletion service filters and removes these rows.
	AssetID *uuid.UUID `json:"assetId" gorm:"type:uuid;index;"`

	IPPattern *string `json:"ipPattern" gorm:"type:text;"`
	Product   *string `json:"product" gorm:"type:text;"`
	Version   *string `json:"version" gorm:"type:text;"`

	Reason string `json:"reason" gorm:"type:text;"`
}

func (m VulnerabilityException) TableName() string {
	return "vulnerability_exceptions"
}

// IsGlobal reports whether the exception applies across all assets.
func (m VulnerabilityException) IsGlobal() bool {
	return m.Scope == ExceptionScopeIP || m.Scope == ExceptionScopeProduct
}
