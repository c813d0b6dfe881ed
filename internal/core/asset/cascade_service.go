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
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package asset

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/core/audit"
	"github.com/schmalle/secman-sub012/internal/database/models"
	"github.com/schmalle/secman-sub012/internal/monitoring"
	"github.com/schmalle/secman-sub012/internal/pubsub"
)

type assetRepository interface {
	Transaction(txFunc func(core.DB) error) error
	Read(id uuid.UUID) (models.Asset, error)
	All() ([]models.Asset, error)
	FindForUpdate(tx core.DB, id uuid.UUID, lockTimeoutSeconds int) (models.Asset, error)
	Delete(tx core.DB, id uuid.UUID) error
}

type vulnerabilityRepository interface {
	CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
	FindIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(tx core.DB, ids []uuid.UUID) error
}

type vulnerabilityExceptionRepository interface {
	CountAssetScopedByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
	FindAssetScopedIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(tx core.DB, ids []uuid.UUID) error
}

type exceptionRequestRepository interface {
	CountByAssetID(tx core.DB, assetID uuid.UUID) (int64, error)
	FindIDsByAssetID(tx core.DB, assetID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(tx core.DB, ids []uuid.UUID) error
}

type auditRecorder interface {
	RecordAsync(entry audit.CascadeAudit)
}

type progressBroker interface {
	Publish(ctx context.Context, message pubsub.Message) error
}

type service struct {
	assetRepository         assetRepository
	vulnerabilityRepository vulnerabilityRepository
	exceptionRepository     vulnerabilityExceptionRepository
	requestRepository       exceptionRequestRepository

	estimator     *costEstimator
	auditRecorder auditRecorder
	broker        progressBroker

	lockTimeoutSeconds int
}

func NewService(assetRepository assetRepository, vulnerabilityRepository vulnerabilityRepository, exceptionRepository vulnerabilityExceptionRepository, requestRepository exceptionRequestRepository, auditRecorder auditRecorder, broker progressBroker) *service {
	return &service{
		assetRepository:         assetRepository,
		vulnerabilityRepository: vulnerabilityRepository,
		exceptionRepository:     exceptionRepository,
		requestRepository:       requestRepository,

		estimator:     newCostEstimator(vulnerabilityRepository, exceptionRepository, requestRepository),
		auditRecorder: auditRecorder,
		broker:        broker,

		lockTimeoutSeconds: int(envInt64("CASCADE_LOCK_TIMEOUT_SECONDS", defaultLockTimeoutSeconds)),
	}
}

func (s *service) GetAsset(assetID uuid.UUID) (models.Asset, error) {
	return s.assetRepository.Read(assetID)
}

func (s *service) ListAssets() ([]models.Asset, error) {
	return s.assetRepository.All()
}

// EstimateDeletion runs the read-only pre-flight projection outside any
// lock. The same estimator also runs inside DeleteAsset under the lock.
func (s *service) EstimateDeletion(assetID uuid.UUID) (*Estimate, *CascadeError) {
	if _, err := s.assetRepository.Read(assetID); err != nil {
		return nil, classifyDeletionError(assetID, "", err)
	}
	estimate, err := s.estimator.Estimate(nil, assetID)
	if err != nil {
		return nil, classifyDeletionError(assetID, "", err)
	}
	return estimate, nil
}

// DeleteAsset removes one asset and everything it owns: its
// vulnerabilities, the exceptions scoped to it and every exception request
// referencing those vulnerabilities. Globally scoped exceptions survive.
// All steps run in one transaction - on any failure nothing is changed.
func (s *service) DeleteAsset(assetID uuid.UUID, principal string, force bool) (*DeletionResult, *CascadeError) {
	monitoring.CascadeStartedAmount.Inc()
	start := time.Now()

	var result *DeletionResult
	var auditEntry audit.CascadeAudit

	err := s.assetRepository.Transaction(func(tx core.DB) error {
		var txErr error
		result, auditEntry, txErr = s.cascade(tx, assetID, principal, !force)
		return txErr
	})
	if err != nil {
		cascadeErr := classifyDeletionError(assetID, "", err)
		monitoring.CascadeFailedAmount.WithLabelValues(string(cascadeErr.Kind)).Inc()
		slog.Error("cascade deletion failed", "assetId", assetID, "kind", cascadeErr.Kind, "err", err)
		return nil, cascadeErr
	}

	s.observeSuccess(result, time.Since(start))

	auditEntry.Kind = models.OperationKindSingle
	s.auditRecorder.RecordAsync(auditEntry)

	return result, nil
}

// cascade performs lock, optional pre-flight, id collection and the
// bottom-up delete sequence inside the given transaction. It never
// commits - the caller owns the transaction boundary.
func (s *service) cascade(tx core.DB, assetID uuid.UUID, principal string, preflight bool) (*DeletionResult, audit.CascadeAudit, error) {
	var auditEntry audit.CascadeAudit

	// blocking, bounded wait - a concurrent deletion of the same asset
	// serializes here
	asset, err := s.assetRepository.FindForUpdate(tx, assetID, s.lockTimeoutSeconds)
	if err != nil {
		return nil, auditEntry, err
	}

	if preflight {
		estimate, err := s.estimator.Estimate(tx, assetID)
		if err != nil {
			return nil, auditEntry, err
		}
		if estimate.ExceedsBudget {
			// nothing destructive happened yet, the rollback is a no-op
			return nil, auditEntry, newTimeoutRiskError(assetID, asset.Name, estimate)
		}
	}

	// collect ids under the lock, children first. The order matters:
	// requests reference vulnerabilities, vulnerabilities reference the
	// asset.
	requestIDs, err := s.requestRepository.FindIDsByAssetID(tx, assetID)
	if err != nil {
		return nil, auditEntry, err
	}

	exceptionIDs, err := s.exceptionRepository.FindAssetScopedIDsByAssetID(tx, assetID)
	if err != nil {
		return nil, auditEntry, err
	}

	vulnerabilityIDs, err := s.vulnerabilityRepository.FindIDsByAssetID(tx, assetID)
	if err != nil {
		return nil, auditEntry, err
	}

	// delete bottom-up, one batched statement per table
	if err := s.requestRepository.DeleteByIDs(tx, requestIDs); err != nil {
		return nil, auditEntry, err
	}
	if err := s.exceptionRepository.DeleteByIDs(tx, exceptionIDs); err != nil {
		return nil, auditEntry, err
	}
	if err := s.vulnerabilityRepository.DeleteByIDs(tx, vulnerabilityIDs); err != nil {
		return nil, auditEntry, err
	}
	if err := s.assetRepository.Delete(tx, assetID); err != nil {
		return nil, auditEntry, err
	}

	result := &DeletionResult{
		AssetID:   assetID,
		AssetName: asset.Name,

		VulnerabilityCount: len(vulnerabilityIDs),
		ExceptionCount:     len(exceptionIDs),
		RequestCount:       len(requestIDs),
	}

	auditEntry = audit.CascadeAudit{
		AssetID:   assetID,
		AssetName: asset.Name,
		Principal: principal,

		VulnerabilityIDs: vulnerabilityIDs,
		ExceptionIDs:     exceptionIDs,
		RequestIDs:       requestIDs,
	}

	return result, auditEntry, nil
}

// DeleteBatch cascades over every asset in input order inside one shared
// transaction - the whole batch commits together or not at all. onProgress
// receives one event per finished item plus a terminal event; per-item
// events are provisional until the terminal completed event, because a
// later failure rolls everything back.
func (s *service) DeleteBatch(assetIDs []uuid.UUID, principal string, onProgress func(BatchProgressEvent)) (*BatchResult, *CascadeError) {
	monitoring.BatchDeletionStartedAmount.Inc()

	batchID := uuid.New()
	total := len(assetIDs)

	results := make([]DeletionResult, 0, total)
	auditEntries := make([]audit.CascadeAudit, 0, total)

	var failedErr *CascadeError

	err := s.assetRepository.Transaction(func(tx core.DB) error {
		for _, assetID := range assetIDs {
			// every item counts as a started cascade of its own, so the
			// started/succeeded counters stay comparable
			monitoring.CascadeStartedAmount.Inc()
			result, auditEntry, err := s.cascade(tx, assetID, principal, false)
			if err != nil {
				failedErr = classifyDeletionError(assetID, "", err)
				s.emit(onProgress, BatchProgressEvent{
					BatchID:     batchID,
					Total:       total,
					Completed:   len(results),
					AssetID:     &assetID,
					AssetName:   failedErr.AssetName,
					Status:      BatchStatusFailed,
					Provisional: false,
					Error:       failedErr,
				})
				return err
			}

			results = append(results, *result)
			auditEntries = append(auditEntries, auditEntry)

			// provisional: the shared transaction is still open
			eventAssetID := assetID
			s.emit(onProgress, BatchProgressEvent{
				BatchID:     batchID,
				Total:       total,
				Completed:   len(results),
				AssetID:     &eventAssetID,
				AssetName:   result.AssetName,
				Status:      BatchStatusSuccess,
				Provisional: true,
				Result:      result,
			})
		}
		return nil
	})
	if err != nil {
		monitoring.BatchDeletionRolledBackAmount.Inc()
		if failedErr == nil {
			// the commit itself failed
			failedErr = classifyDeletionError(uuid.UUID{}, "", err)
			s.emit(onProgress, BatchProgressEvent{
				BatchID:     batchID,
				Total:       total,
				Completed:   len(results),
				Status:      BatchStatusFailed,
				Provisional: false,
				Error:       failedErr,
			})
		}
		monitoring.CascadeFailedAmount.WithLabelValues(string(failedErr.Kind)).Inc()
		slog.Error("batch deletion rolled back", "batchId", batchID, "failedAssetId", failedErr.AssetID, "kind", failedErr.Kind, "err", err)
		return nil, failedErr
	}

	// the outer commit succeeded - only now are the audit rows written,
	// one per item, all sharing the batch correlation id
	for i := range auditEntries {
		auditEntries[i].Kind = models.OperationKindBatchMember
		auditEntries[i].BatchID = &batchID
		s.auditRecorder.RecordAsync(auditEntries[i])
	}

	for i := range results {
		s.observeSuccess(&results[i], 0)
	}

	s.emit(onProgress, BatchProgressEvent{
		BatchID:     batchID,
		Total:       total,
		Completed:   len(results),
		Status:      BatchStatusCompleted,
		Provisional: false,
	})

	return &BatchResult{
		BatchID: batchID,
		Results: results,
	}, nil
}

// emit hands the event to the SSE stream of the initiating request and
// broadcasts it over the broker for any other observer. Neither path may
// ever influence the transaction outcome.
func (s *service) emit(onProgress func(BatchProgressEvent), event BatchProgressEvent) {
	if onProgress != nil {
		onProgress(event)
	}

	if s.broker == nil {
		return
	}

	payload, err := eventPayload(event)
	if err != nil {
		slog.Error("could not serialize progress event", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.broker.Publish(ctx, pubsub.PostgreSQLMessage{
		Channel: pubsub.ChannelDeletionProgress,
		Payload: payload,
	}); err != nil {
		slog.Warn("could not publish progress event", "err", err)
	}
}

func (s *service) observeSuccess(result *DeletionResult, duration time.Duration) {
	monitoring.CascadeSucceededAmount.Inc()
	if duration > 0 {
		monitoring.CascadeDuration.Observe(duration.Seconds())
	}
	monitoring.CascadeDeletedRowsAmount.WithLabelValues("vulnerabilities").Add(float64(result.VulnerabilityCount))
	monitoring.CascadeDeletedRowsAmount.WithLabelValues("vulnerability_exceptions").Add(float64(result.ExceptionCount))
	monitoring.CascadeDeletedRowsAmount.WithLabelValues("exception_requests").Add(float64(result.RequestCount))
	monitoring.CascadeDeletedRowsAmount.WithLabelValues("assets").Inc()
}

func eventPayload(event BatchProgressEvent) (map[string]interface{}, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
