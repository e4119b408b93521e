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

// Package workflow assembles the pipeline commands into the video narrative
// orchestration: trigger parsing, download, frame extraction, concurrent
// batch description, ordered aggregation, and run reporting. The workflow
// is itself a chain command, so the Pub/Sub listener drives it directly.
package workflow

import (
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/prompts"
	"github.com/mwira/gcp-go-video-narrative/internal/core/services"
)

// PipelineConfig carries the orchestration parameters for a run. They are
// fixed at construction; the workflow never consults the environment.
type PipelineConfig struct {
	DescribeModel    cloud.GenerativeModel
	AggregateModel   cloud.GenerativeModel
	BatchSize        int
	ConcurrencyLimit int
	CallTimeout      time.Duration
}

// PipelineDeps bundles the external capabilities the workflow stages use.
// Tests substitute in-memory implementations for every field but the
// storage client, which only the download step touches.
type PipelineDeps struct {
	StorageClient *storage.Client
	FfmpegPath    string
	FrameSink     commands.FrameSink
	FrameLoader   commands.FrameLoader
	Resolver      *prompts.Resolver
	Store         services.AnalysisStore
	Observer      commands.Observer
}

// VideoNarrativeWorkflow runs one video through the full pipeline. Per-run
// state lives entirely on the chain context, so a single workflow instance
// serves all messages from its listener.
type VideoNarrativeWorkflow struct {
	cor.BaseCommand
	config   PipelineConfig
	deps     PipelineDeps
	observer commands.Observer
	chain    cor.Chain
}

// Execute runs the chain and reports the terminal outcome. The chain stops
// at the first recorded error, which by construction only extraction (or
// the steps before it) can produce; describe and aggregate degrade to
// sentinels instead of erroring. A stopped chain therefore means a failed
// run with no records written.
//
// The run owns every temp file its commands register, so the context is
// closed here regardless of outcome. The downloaded source video must not
// outlive its message.
func (m *VideoNarrativeWorkflow) Execute(context cor.Context) {
	defer context.Close()

	m.chain.Execute(context)

	if !context.HasErrors() {
		return
	}
	result := &model.RunResult{
		RunID:  uuid.NewString(),
		Status: model.RunFailed,
	}
	if video, ok := context.Get(commands.GetVideoParameterName()).(*model.Video); ok {
		result.VideoID = video.ID
	}
	for name, err := range context.GetErrors() {
		result.Message = name + ": " + err.Error()
		m.observer.OnError(context.GetContext(), name, err)
	}
	m.observer.OnRunComplete(context.GetContext(), result)
}

func (m *VideoNarrativeWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: parse the GCS notification, filter non-starts, and derive
	// the video identity.
	out.AddCommand(commands.NewVideoTriggerReader("video-trigger-reader"))

	// Step 2: download the source object to a local temp file for ffmpeg.
	out.AddCommand(commands.NewGCSToTempFile("video-to-temp-file", m.deps.StorageClient, "video-narrative-"))

	// Step 3: sample one frame per second, upload the frames, and cut the
	// ordered list into batches. Failure here aborts the run.
	out.AddCommand(commands.NewFrameExtractor(
		"extract-frames",
		m.deps.FfmpegPath,
		m.deps.FrameSink,
		m.config.BatchSize,
		m.config.CallTimeout))

	// Step 4: describe the batches concurrently. Every batch yields a
	// result, degraded or not, and its record is persisted here.
	out.AddCommand(commands.NewBatchDescriber(
		"describe-batches",
		m.config.DescribeModel,
		m.deps.Resolver,
		m.deps.FrameLoader,
		m.deps.Store,
		m.observer,
		m.config.ConcurrencyLimit,
		m.config.CallTimeout))

	// Step 5: sort by sequence and fold the descriptions into the
	// aggregate summary record.
	out.AddCommand(commands.NewAggregator(
		"aggregate-summary",
		m.config.AggregateModel,
		m.deps.Resolver,
		m.deps.Store,
		m.observer,
		m.config.CallTimeout))

	// Step 6: compose the run result and notify the observer.
	out.AddCommand(commands.NewRunReporter("report-run", m.observer))

	m.chain = out
}

// NewVideoNarrativePipeline builds the workflow from explicit configuration
// and dependencies. A nil observer defaults to the no-op implementation.
func NewVideoNarrativePipeline(config PipelineConfig, deps PipelineDeps) *VideoNarrativeWorkflow {
	if deps.Observer == nil {
		deps.Observer = commands.NopObserver{}
	}
	pipeline := &VideoNarrativeWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-narrative-pipeline"),
		config:      config,
		deps:        deps,
		observer:    deps.Observer,
	}
	pipeline.initializeChain()
	return pipeline
}

// NewVideoNarrativePipelineFromConfig wires the production workflow from
// the loaded configuration and shared service clients.
func NewVideoNarrativePipelineFromConfig(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	observer commands.Observer) *VideoNarrativeWorkflow {
	frameStore := commands.NewGCSFrameStore(serviceClients.StorageClient, config.Storage.FrameBucket)
	resolver := prompts.NewResolver(prompts.NewFirestoreStore(serviceClients.FirestoreClient, config.Firestore.PromptCollection))
	store := services.NewAnalysisService(serviceClients.FirestoreClient, config.Firestore.AnalysisCollection)

	return NewVideoNarrativePipeline(
		PipelineConfig{
			DescribeModel:    serviceClients.AgentModels[config.Pipeline.DescribeModel],
			AggregateModel:   serviceClients.AgentModels[config.Pipeline.AggregateModel],
			BatchSize:        config.Pipeline.BatchSize,
			ConcurrencyLimit: config.Pipeline.ConcurrencyLimit,
			CallTimeout:      time.Duration(config.Pipeline.CallTimeoutInSeconds) * time.Second,
		},
		PipelineDeps{
			StorageClient: serviceClients.StorageClient,
			FfmpegPath:    config.Ffmpeg.Path,
			FrameSink:     frameStore,
			FrameLoader:   frameStore,
			Resolver:      resolver,
			Store:         store,
			Observer:      observer,
		})
}
