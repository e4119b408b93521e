// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file holds the application state initialization: configuration
// loading, Google Cloud client construction, service wiring, prompt store
// seeding, and listener startup. State is assembled once at boot and shared
// through the package-level state manager.
package main

import (
	"context"
	"log"
	"os"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/prompts"
	"github.com/mwira/gcp-go-video-narrative/internal/core/services"
)

// StateManager holds the shared dependencies for the application: the
// loaded configuration, the cloud client container, and the services the
// API routes draw from.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	promptStore     *prompts.FirestoreStore
	analysisService *services.AnalysisService
	videoService    *services.VideoService
	auditService    *services.AuditService
}

// state is the single instance of StateManager for the process.
var state = &StateManager{}

// SetupOS points the configuration loader at the local config directory and
// runtime. The loader reads .env.toml and then the .env.<runtime>.toml
// override.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration,
// loading it from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds the application state: all Google Cloud clients, the
// review services, the seeded prompt store, and the Pub/Sub listeners that
// drive the narrative pipeline.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.promptStore = prompts.NewFirestoreStore(cloudClients.FirestoreClient, config.Firestore.PromptCollection)
	seedPrompts(ctx, state.promptStore)

	state.analysisService = services.NewAnalysisService(cloudClients.FirestoreClient, config.Firestore.AnalysisCollection)
	state.videoService = services.NewVideoService(
		cloudClients.StorageClient,
		cloudClients.IAMClient,
		config.Application.SignerServiceAccountEmail)
	state.auditService = services.NewAuditService(
		cloudClients.BigQueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.RunAuditTable)

	SetupListeners(config, cloudClients, ctx)
}

// seedPrompts publishes the built-in prompt templates for any prompt that
// has no version pointer yet. A fresh project becomes usable without a
// manual publish step; existing pointers are never touched.
func seedPrompts(ctx context.Context, store *prompts.FirestoreStore) {
	seeds := map[string]*model.PromptTemplate{
		prompts.AnalysisPromptID:  model.DefaultAnalysisPrompt(),
		prompts.AggregatePromptID: model.DefaultAggregatePrompt(),
	}
	for promptID, template := range seeds {
		if _, err := store.GetPointer(ctx, promptID); err == nil {
			continue
		}
		version, err := store.Publish(ctx, promptID, template)
		if err != nil {
			log.Fatalf("failed to seed prompt %s: %v\n", promptID, err)
		}
		log.Printf("seeded prompt %s at version %d\n", promptID, version)
	}
}
