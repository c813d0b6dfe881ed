package models

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusExpired   RequestStatus = "expired"
	RequestStatusCancelled RequestStatus = "cancelled"
)

type ExceptionRequest struct {
	Model
	// nullable on purpose - deleting a vulnerability outside the cascade
	// sets the reference to NULL. The cascade service deletes the request
	// rows outright instead.
	VulnerabilityID *uuid.UUID     `json:"vulnerabilityId" gorm:"type:uuid;index;"`
	Vulnerability   *Vulnerability `json:"vulnerability,omitempty" gorm:"foreignKey:VulnerabilityID;constraint:OnDelete:SET NULL;"`

	Status        RequestStatus `json:"status" gorm:"type:text;not null;default:'pending';"`
	Justification string        `json:"justification" gorm:"type:text;not null;"`

	Requester  string     `json:"requester" gorm:"type:text;not null;"`
	Reviewer   *string    `json:"reviewer" gorm:"type:text;"`
	ReviewedAt *time.Time `json:"reviewedAt"`
}

func (m ExceptionRequest) TableName() string {
	return "exception_requests"
}
