package audit

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/database/models"
)

type auditQueryRepository interface {
	FindByAssetID(assetID uuid.UUID) ([]models.DeletionAuditLog, error)
	FindByPrincipal(principal string) ([]models.DeletionAuditLog, error)
	FindByBatchID(batchID uuid.UUID) ([]models.DeletionAuditLog, error)
}

// httpController is the read-only audit query surface for compliance and
// reporting tooling. There is no write surface - rows only come from the
// recorder, and nothing ever updates or deletes them.
type httpController struct {
	repository auditQueryRepository
}

func NewHTTPController(repository auditQueryRepository) *httpController {
	return &httpController{
		repository: repository,
	}
}

func (a *httpController) ListByAsset(ctx core.Context) error {
	assetID, err := uuid.Parse(ctx.Param("assetID"))
	if err != nil {
		return echo.NewHTTPError(400, "invalid asset id").WithInternal(err)
	}

	logs, err := a.repository.FindByAssetID(assetID)
	if err != nil {
		return echo.NewHTTPError(500, "could not query audit logs").WithInternal(err)
	}
	return ctx.JSON(200, logs)
}

func (a *httpController) List(ctx core.Context) error {
	if batchParam := ctx.QueryParam("batchId"); batchParam != "" {
		batchID, err := uuid.Parse(batchParam)
		if err != nil {
			return echo.NewHTTPError(400, "invalid batch id").WithInternal(err)
		}
		logs, err := a.repository.FindByBatchID(batchID)
		if err != nil {
			return echo.NewHTTPError(500, "could not query audit logs").WithInternal(err)
		}
		return ctx.JSON(200, logs)
	}

	principal := ctx.QueryParam("principal")
	if principal == "" {
		return echo.NewHTTPError(400, "either principal or batchId must be given")
	}

	logs, err := a.repository.FindByPrincipal(principal)
	if err != nil {
		return echo.NewHTTPError(500, "could not query audit logs").WithInternal(err)
	}
	return ctx.JSON(200, logs)
}
