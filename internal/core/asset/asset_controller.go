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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/pubsub"
)

// progressFeedIdleTimeout closes a dashboard feed that has not seen any
// event for a while. UX affordance only - it has no relation to the
// transaction timeout.
const progressFeedIdleTimeout = 5 * time.Minute

type progressSubscriber interface {
	Subscribe(channel pubsub.Channel) (<-chan map[string]interface{}, error)
	Unsubscribe(channel pubsub.Channel, subscription <-chan map[string]interface{})
}

type httpController struct {
	service    *service
	subscriber progressSubscriber
}

func NewHTTPController(service *service, subscriber progressSubscriber) *httpController {
	return &httpController{
		service:    service,
		subscriber: subscriber,
	}
}

func (a *httpController) List(ctx core.Context) error {
	assets, err := a.service.ListAssets()
	if err != nil {
		return echo.NewHTTPError(500, "could not list assets").WithInternal(err)
	}
	return ctx.JSON(200, toDTOs(assets))
}

func (a *httpController) Read(ctx core.Context) error {
	assetID, err := parseAssetID(ctx)
	if err != nil {
		return err
	}

	asset, err := a.service.GetAsset(assetID)
	if err != nil {
		return echo.NewHTTPError(404, "asset not found").WithInternal(err)
	}
	return ctx.JSON(200, toDTO(asset))
}

// GetDeletionEstimate is the read-only pre-flight: it tells the caller how
// expensive a cascade would be without touching anything.
func (a *httpController) GetDeletionEstimate(ctx core.Context) error {
	assetID, err := parseAssetID(ctx)
	if err != nil {
		return err
	}

	estimate, cascadeErr := a.service.EstimateDeletion(assetID)
	if cascadeErr != nil {
		return writeCascadeError(ctx, cascadeErr)
	}
	return ctx.JSON(200, estimate)
}

func (a *httpController) Delete(ctx core.Context) error {
	assetID, err := parseAssetID(ctx)
	if err != nil {
		return err
	}

	force := ctx.QueryParam("force") == "true"
	principal := core.GetPrincipal(ctx)

	result, cascadeErr := a.service.DeleteAsset(assetID, principal, force)
	if cascadeErr != nil {
		return writeCascadeError(ctx, cascadeErr)
	}
	return ctx.JSON(200, result)
}

// BatchDelete streams one server-sent event per finished item. Events are
// provisional until the terminal "completed" event - consumers must not
// treat earlier successes as durable, a mid-batch failure rolls all of
// them back.
func (a *httpController) BatchDelete(ctx core.Context) error {
	var req BatchDeleteRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(400, "unable to process request").WithInternal(err)
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, "assetIds must contain at least one id").WithInternal(err)
	}

	response := ctx.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)

	principal := core.GetPrincipal(ctx)

	// a disconnected client must never abort the in-flight transaction -
	// write failures are logged and the work continues
	onProgress := func(event BatchProgressEvent) {
		if err := writeSSE(response, event); err != nil {
			slog.Debug("progress stream client gone", "err", err)
		}
	}

	_, cascadeErr := a.service.DeleteBatch(req.AssetIDs, principal, onProgress)
	if cascadeErr != nil {
		// the terminal failed event already went out over the stream
		slog.Warn("batch deletion failed", "kind", cascadeErr.Kind, "assetId", cascadeErr.AssetID)
	}
	return nil
}

// ProgressFeed relays batch deletion progress from the broker to
// dashboard-style observers - including batches running on other service
// instances.
func (a *httpController) ProgressFeed(ctx core.Context) error {
	events, err := a.subscriber.Subscribe(pubsub.ChannelDeletionProgress)
	if err != nil {
		return echo.NewHTTPError(500, "could not subscribe to progress feed").WithInternal(err)
	}
	// the subscription lives exactly as long as this request
	defer a.subscriber.Unsubscribe(pubsub.ChannelDeletionProgress, events)

	response := ctx.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)

	idle := time.NewTimer(progressFeedIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case <-idle.C:
			return nil
		case payload, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeSSE(response, payload); err != nil {
				return nil
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(progressFeedIdleTimeout)
		}
	}
}

func parseAssetID(ctx core.Context) (uuid.UUID, error) {
	assetID, err := uuid.Parse(ctx.Param("assetID"))
	if err != nil {
		return uuid.UUID{}, echo.NewHTTPError(400, "invalid asset id").WithInternal(err)
	}
	return assetID, nil
}

func writeCascadeError(ctx core.Context, cascadeErr *CascadeError) error {
	type errorResponse struct {
		*CascadeError
		Detail string `json:"detail,omitempty"`
	}

	response := errorResponse{CascadeError: cascadeErr}
	// the technical detail is only for privileged callers - the gateway
	// in front of this service sets the header
	if ctx.Request().Header.Get("X-Privileged") == "true" {
		response.Detail = cascadeErr.Detail
	}

	return ctx.JSON(cascadeErr.HTTPStatus(), response)
}

func writeSSE(response *echo.Response, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(response, "data: %s\n\n", data); err != nil {
		return err
	}
	if flusher, ok := response.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
