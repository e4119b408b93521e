// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the video narrative server.
//
// The server does two jobs. In the background it listens to a Pub/Sub
// subscription fed by GCS upload notifications and runs the narrative
// pipeline for every new video: frame extraction, batched vision analysis,
// and aggregate summarization, all persisted to Firestore. In the
// foreground it serves a small Gin REST API for reviewing the persisted
// records, minting streaming URLs, and inspecting recent run outcomes.
//
// The process is instrumented with OpenTelemetry logging, tracing, and
// metrics throughout.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mwira/gcp-go-video-narrative/internal/api"
	"github.com/mwira/gcp-go-video-narrative/internal/telemetry"
)

func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// Root context for the listeners and client connections.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from TOML files.
	config := GetConfig()

	// Initialize OpenTelemetry for distributed tracing and metrics.
	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize service clients, services, prompt seeds, and listeners.
	InitState(ctx)
	slog.Info("Initialized State")

	// Set up the Gin web server with default middleware.
	r := gin.Default()

	// Trace incoming requests.
	r.Use(otelgin.Middleware("video-narrative-server"))

	// cors.Default() is permissive; the API is read-only and fronted by
	// the project's load balancer in production.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		api.Register(apiV1, &api.Services{
			Analysis: state.analysisService,
			Videos:   state.videoService,
			Audit:    state.auditService,
		})
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Block until an interrupt arrives, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}
