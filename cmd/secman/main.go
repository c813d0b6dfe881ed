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

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schmalle/secman-sub012/internal/core"
	"github.com/schmalle/secman-sub012/internal/core/asset"
	"github.com/schmalle/secman-sub012/internal/core/audit"
	"github.com/schmalle/secman-sub012/internal/database"
	"github.com/schmalle/secman-sub012/internal/database/repositories"
	"github.com/schmalle/secman-sub012/internal/echohttp"
	"github.com/schmalle/secman-sub012/internal/pubsub"
)

func main() {
	core.LoadConfig() // nolint: errcheck
	core.InitLogger()

	if os.Getenv("ERROR_TRACKING_DSN") != "" {
		initSentry()

		// Catch panics
		defer func() {
			if err := recover(); err != nil {
				sentry.CurrentHub().Recover(err)
				// Wait for events to be send to server
				sentry.Flush(time.Second * 5)
			}
		}()
	}

	db, err := database.NewConnection(
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_PORT"),
	)
	if err != nil {
		slog.Error("failed to setup database connection", "err", err)
		os.Exit(1)
	}

	broker, err := pubsub.BrokerFactory()
	if err != nil {
		slog.Error("failed to create broker", "err", err)
		os.Exit(1)
	}
	defer broker.Close() // nolint: errcheck

	assetRepository := repositories.NewAssetRepository(db)
	vulnerabilityRepository := repositories.NewVulnerabilityRepository(db)
	exceptionRepository := repositories.NewVulnerabilityExceptionRepository(db)
	requestRepository := repositories.NewExceptionRequestRepository(db)
	auditLogRepository := repositories.NewDeletionAuditLogRepository(db)

	auditRecorder := audit.NewRecorder(auditLogRepository)

	cascadeService := asset.NewService(assetRepository, vulnerabilityRepository, exceptionRepository, requestRepository, auditRecorder, broker)
	assetController := asset.NewHTTPController(cascadeService, broker)
	auditController := audit.NewHTTPController(auditLogRepository)

	e := echohttp.Server()

	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1 := e.Group("/api/v1")

	apiV1.GET("/assets", assetController.List)
	apiV1.GET("/assets/:assetID", assetController.Read)
	apiV1.GET("/assets/:assetID/deletion-estimate", assetController.GetDeletionEstimate)
	apiV1.DELETE("/assets/:assetID", assetController.Delete)
	apiV1.POST("/assets/batch-delete", assetController.BatchDelete)
	apiV1.GET("/deletions/progress", assetController.ProgressFeed)

	apiV1.GET("/assets/:assetID/deletion-audit", auditController.ListByAsset)
	apiV1.GET("/deletion-audit", auditController.List)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func initSentry() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "dev"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("ERROR_TRACKING_DSN"),
		Environment:      environment,
		Debug:            environment == "dev",
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		slog.Error("failed to init error tracking", "err", err)
	}
}
