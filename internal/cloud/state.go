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

// This file assembles the shared Google Cloud clients at startup. The
// resulting ServiceClients struct is the application's dependency container:
// workflows, services, and the API all draw their clients from it rather
// than constructing their own.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients holds every external client the service uses, plus the
// configured Pub/Sub listeners and quota-aware model identities keyed by
// their logical names from the config.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	FirestoreClient *firestore.Client
	BigQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases all client connections. Useful in tests and controlled
// shutdowns; in the server the root context teardown usually covers it.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.FirestoreClient.Close()
	_ = c.BigQueryClient.Close()
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients initializes every Google Cloud client the
// configuration calls for. Listeners are created without commands; the
// workflow wiring attaches those later.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Error("failed to create genai client", "error", err)
		return nil, err
	}

	fc, err := firestore.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	subscriptions := make(map[string]*PubSubListener)
	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = listener
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		genConfig := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](values.Temperature),
			TopP:            genai.Ptr[float32](values.TopP),
			MaxOutputTokens: values.MaxTokens,
			SafetySettings:  DefaultSafetySettings,
		}
		if values.UseTopK {
			genConfig.TopK = genai.Ptr[float32](values.TopK)
		}
		if values.SystemInstructions != "" {
			genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
		}
		if values.OutputFormat != "" {
			genConfig.ResponseMIMEType = values.OutputFormat
		}
		agentModels[amKey] = NewQuotaAwareModel(genConfig, values.Model, gc.Models, values.RateLimit)
	}

	return &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		GenAIClient:     gc,
		FirestoreClient: fc,
		BigQueryClient:  bc,
		IAMClient:       iamClient,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}, nil
}
