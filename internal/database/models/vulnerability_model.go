package models

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type Vulnerability struct {
	Model
	// every vulnerability belongs to exactly one asset
	AssetID uuid.UUID `json:"assetId" gorm:"type:uuid;not null;index;"`

	CVE      string   `json:"cve" gorm:"type:text;not null;"`
	Severity Severity `json:"severity" gorm:"type:text;not null;"`

	FirstSeen time.Time `json:"firstSeen"`
}

func (m Vulnerability) TableName() string {
	return "vulnerabilities"
}
