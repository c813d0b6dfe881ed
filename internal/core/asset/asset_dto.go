package asset

import (
	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/database/models"
)

type assetDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Type        models.AssetType `json:"type"`
	IP          *string          `json:"ip"`
	Owner       string           `json:"owner"`
	Description string           `json:"description"`
}

func toDTO(asset models.Asset) assetDTO {
	return assetDTO{
		ID:          asset.ID,
		Name:        asset.Name,
		Type:        asset.Type,
		IP:          asset.IP,
		Owner:       asset.Owner,
		Description: asset.Description,
	}
}

func toDTOs(assets []models.Asset) []assetDTO {
	dtos := make([]assetDTO, len(assets))
	for i, asset := range assets {
		dtos[i] = toDTO(asset)
	}
	return dtos
}

// DeletionResult summarizes one committed cascade.
type DeletionResult struct {
	AssetID   uuid.UUID `json:"assetId"`
	AssetName string    `json:"assetName"`

	VulnerabilityCount int `json:"vulnerabilityCount"`
	ExceptionCount     int `json:"exceptionCount"`
	RequestCount       int `json:"requestCount"`
}

type BatchDeleteRequest struct {
	AssetIDs []uuid.UUID `json:"assetIds" validate:"required,min=1,dive,required"`
}

type BatchStatus string

const (
	// BatchStatusSuccess - one item finished inside the still-open
	// transaction. Provisional until the terminal event.
	BatchStatusSuccess BatchStatus = "success"
	// BatchStatusFailed - terminal. The whole batch was rolled back,
	// including items previously reported as success.
	BatchStatusFailed BatchStatus = "failed"
	// BatchStatusCompleted - terminal. Everything is committed.
	BatchStatusCompleted BatchStatus = "completed"
)

type BatchProgressEvent struct {
	BatchID   uuid.UUID `json:"batchId"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`

	AssetID   *uuid.UUID `json:"assetId,omitempty"`
	AssetName string     `json:"assetName,omitempty"`

	Status BatchStatus `json:"status"`
	// Provisional events may still be invalidated by a rollback. Only the
	// terminal completed event guarantees durability.
	Provisional bool `json:"provisional"`

	Result *DeletionResult `json:"result,omitempty"`
	Error  *CascadeError   `json:"error,omitempty"`
}

type BatchResult struct {
	BatchID uuid.UUID        `json:"batchId"`
	Results []DeletionResult `json:"results"`
}
