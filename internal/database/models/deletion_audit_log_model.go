package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OperationKind string

const (
	OperationKindSingle      OperationKind = "single"
	OperationKindBatchMember OperationKind = "batch-member"
)

// DeletionAuditLog is the append-only record of one cascade deletion.
// Asset id and name are captured as plain values - the referenced row is
// gone by the time this row exists, so there is nothing to reference.
type DeletionAuditLog struct {
	Model
	AssetID   uuid.UUID `json:"assetId" gorm:"type:uuid;not null;index;"`
	AssetName string    `json:"assetName" gorm:"type:text;not null;"`

	Principal string `json:"principal" gorm:"type:text;not null;index;"`

	VulnerabilityCount int `json:"vulnerabilityCount" gorm:"not null;"`
	ExceptionCount     int `json:"exceptionCount" gorm:"not null;"`
	RequestCount       int `json:"requestCount" gorm:"not null;"`

	// ordered id lists for forensic replay
	VulnerabilityIDs pq.StringArray `json:"vulnerabilityIds" gorm:"type:text[]"`
	ExceptionIDs     pq.StringArray `json:"exceptionIds" gorm:"type:text[]"`
	RequestIDs       pq.StringArray `json:"requestIds" gorm:"type:text[]"`

	OperationKind OperationKind `json:"operationKind" gorm:"type:text;not null;"`
	// shared by every row written within one batch invocation
	BatchID *uuid.UUID `json:"batchId" gorm:"type:uuid;index;"`
}

func (m DeletionAuditLog) TableName() string {
	return "deletion_audit_logs"
}
