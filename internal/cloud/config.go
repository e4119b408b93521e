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

// Package cloud defines the application configuration structures, loaded
// from hierarchical TOML files, along with the Google Cloud client container
// and service wrappers built from them.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for all harm categories.
// The pipeline analyzes trusted, operator-supplied video; a blocked response
// would otherwise surface as a degraded batch for no actionable reason.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Storage names the two GCS buckets the pipeline touches.
type Storage struct {
	VideoBucket string `toml:"video_bucket"` // Bucket watched for uploaded source videos.
	FrameBucket string `toml:"frame_bucket"` // Bucket that receives the extracted frame images.
}

// Ffmpeg locates the external ffmpeg binary used for frame extraction.
type Ffmpeg struct {
	Path string `toml:"path"`
}

// Pipeline holds the orchestration parameters for a narrative run. These are
// passed explicitly into the workflow at construction; nothing in the core
// reads them from the environment.
type Pipeline struct {
	BatchSize            int    `toml:"batch_size"`              // Max frames per description batch.
	ConcurrencyLimit     int    `toml:"concurrency_limit"`       // Max in-flight describe calls per run.
	CallTimeoutInSeconds int    `toml:"call_timeout_in_seconds"` // Per external call (ffmpeg, describe, aggregate).
	DescribeModel        string `toml:"describe_model"`          // AgentModels key for the per-batch model.
	AggregateModel       string `toml:"aggregate_model"`         // AgentModels key for the summary model.
}

// Firestore names the collections backing the prompt and analysis stores.
type Firestore struct {
	PromptCollection   string `toml:"prompt_collection"`
	AnalysisCollection string `toml:"analysis_collection"`
}

// BigQueryDataSource names the dataset and table used by the run audit
// observer. Run outcomes are append-only facts, which is what BigQuery is
// good at; the keyed analysis records live in Firestore instead.
type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`
	RunAuditTable string `toml:"run_audit_table"`
}

// VertexAiLLMModel configures one generative model identity. TopK is only
// forwarded when UseTopK is set; not every model family accepts it.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	UseTopK            bool    `toml:"use_top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second allowed through the quota wrapper.
}

// TopicSubscription configures a single Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Config is the root configuration aggregate, decoded from .env.toml plus an
// environment-specific override file.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used to sign viewer URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Ffmpeg             Ffmpeg                       `toml:"ffmpeg"`
	Pipeline           Pipeline                     `toml:"pipeline"`
	Firestore          Firestore                    `toml:"firestore"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
}

// NewConfig returns a Config with its map fields initialized so the TOML
// decoder can populate them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}
