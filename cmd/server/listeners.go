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

// This file attaches the narrative pipeline to the Pub/Sub listener fed by
// GCS upload notifications and starts it in the background.
package main

import (
	"context"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/workflow"
)

// VideoTopicKey is the topic_subscriptions config key for the upload
// notification subscription.
const VideoTopicKey = "VideoTopic"

// SetupListeners wires the narrative pipeline to the video upload listener
// and starts receiving. The pipeline reports through both the logging
// observer and the BigQuery run audit observer.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	observer := workflow.NewMultiObserver(
		workflow.NewLoggingObserver(),
		workflow.NewBigQueryAuditObserver(state.auditService))

	pipeline := workflow.NewVideoNarrativePipelineFromConfig(config, cloudClients, observer)

	cloudClients.PubSubListeners[VideoTopicKey].SetCommand(pipeline)
	cloudClients.PubSubListeners[VideoTopicKey].Listen(ctx)
}
