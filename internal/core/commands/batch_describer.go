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

// This file defines the batch description command, the pipeline's fan-out
// stage. Each frame batch is described by one vision model call; batches
// run concurrently through a worker pool bounded by the configured
// concurrency limit.
//
// Failure containment is the contract here: a batch that cannot be
// described for any reason (prompt resolution, frame loading, the model
// call itself) degrades to a Failed result with a persisted sentinel text.
// The command waits for every batch and never propagates a batch failure to
// the chain, so one bad batch cannot abort the run or starve its siblings.
package commands

import (
	goctx "context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/prompts"
	"github.com/mwira/gcp-go-video-narrative/internal/core/services"
)

// BatchDescriber fans frame batches out to a bounded worker pool, persists
// one analysis record per batch, and collects the tagged results for the
// aggregator.
type BatchDescriber struct {
	cor.BaseCommand
	generativeModel          cloud.GenerativeModel
	resolver                 *prompts.Resolver
	loader                   FrameLoader
	store                    services.AnalysisStore
	observer                 Observer
	concurrencyLimit         int
	callTimeout              time.Duration
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

func NewBatchDescriber(
	name string,
	generativeModel cloud.GenerativeModel,
	resolver *prompts.Resolver,
	loader FrameLoader,
	store services.AnalysisStore,
	observer Observer,
	concurrencyLimit int,
	callTimeout time.Duration) *BatchDescriber {
	out := &BatchDescriber{
		BaseCommand:      *cor.NewBaseCommand(name),
		generativeModel:  generativeModel,
		resolver:         resolver,
		loader:           loader,
		store:            store,
		observer:         observer,
		concurrencyLimit: concurrencyLimit,
		callTimeout:      callTimeout,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

func (s *BatchDescriber) Execute(context cor.Context) {
	batches := context.Get(s.GetInputParam()).([]*model.FrameBatch)
	video := context.Get(GetVideoParameterName()).(*model.Video)

	workers := s.concurrencyLimit
	if workers < 1 {
		workers = 1
	}
	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan *model.FrameBatch, len(batches))
	results := make(chan model.DescriptionResult, len(batches))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				result := s.describe(context.GetContext(), video, batch)
				s.observer.OnBatchComplete(context.GetContext(), video, result)
				results <- result
			}
		}()
	}

	for _, batch := range batches {
		jobs <- batch
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]model.DescriptionResult, 0, len(batches))
	for r := range results {
		collected = append(collected, r)
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetBatchResultsParameterName(), collected)
	context.Add(s.GetOutputParam(), collected)
}

// describe handles one batch end to end: prompt resolution, frame loading,
// the model call, and record persistence. It always returns a result; every
// failure path degrades to a Failed result whose sentinel text is persisted
// in place of the description.
func (s *BatchDescriber) describe(ctx goctx.Context, video *model.Video, batch *model.FrameBatch) model.DescriptionResult {
	spanCtx, span := s.Tracer.Start(ctx, fmt.Sprintf("%s_batch_%d", s.GetName(), batch.Sequence))
	span.SetAttributes(
		attribute.String("video_id", batch.VideoID),
		attribute.String("sequence_id", batch.SequenceID),
		attribute.Int("frames", len(batch.Frames)),
	)
	defer span.End()

	promptText, promptVersion, err := s.resolver.Resolve(spanCtx, prompts.AnalysisPromptID)
	if err != nil {
		span.SetStatus(codes.Error, "prompt resolution failed")
		s.observer.OnError(spanCtx, s.GetName(), err)
		result := model.FailedDescription(batch, model.FailurePrompt, err.Error())
		s.persist(spanCtx, video, batch, prompts.VersionTag(prompts.AnalysisPromptID, 0), result)
		return result
	}

	parts := make([]*genai.Part, 0, len(batch.Frames)+1)
	parts = append(parts, &genai.Part{Text: promptText})
	for _, frame := range batch.Frames {
		data, err := s.loader.ReadFrame(spanCtx, batch.ImagePath, frame)
		if err != nil {
			span.SetStatus(codes.Error, "frame load failed")
			s.observer.OnError(spanCtx, s.GetName(), err)
			result := model.FailedDescription(batch, model.FailureFrameLoad, err.Error())
			s.persist(spanCtx, video, batch, promptVersion, result)
			return result
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	callCtx, cancel := goctx.WithTimeout(spanCtx, s.callTimeout)
	defer cancel()

	text, err := cloud.GenerateText(callCtx, s.geminiInputTokenCounter, s.geminiOutputTokenCounter, s.generativeModel, contents)
	if err != nil {
		span.SetStatus(codes.Error, "model invocation failed")
		s.observer.OnError(spanCtx, s.GetName(), fmt.Errorf("%w: %v", model.ErrModelInvocation, err))
		result := model.FailedDescription(batch, model.FailureModel, err.Error())
		s.persist(spanCtx, video, batch, promptVersion, result)
		return result
	}

	result := model.OkDescription(batch, promptVersion, text)
	s.persist(spanCtx, video, batch, promptVersion, result)
	s.GetSuccessCounter().Add(spanCtx, 1)
	span.SetStatus(codes.Ok, "batch described")
	return result
}

// persist writes the batch record. Store failures are logged and swallowed;
// the record's absence is the only trace they leave.
func (s *BatchDescriber) persist(ctx goctx.Context, video *model.Video, batch *model.FrameBatch, promptVersion string, result model.DescriptionResult) {
	record := &model.AnalysisRecord{
		VideoID:   video.ID,
		RecordKey: model.BatchRecordKey(promptVersion, batch.SequenceID),
		Analysis:  result.SentinelText(),
	}
	if err := s.store.Put(ctx, record); err != nil {
		s.GetErrorCounter().Add(ctx, 1)
		slog.Error("failed to persist batch record", "video", video.ID, "key", record.RecordKey, "error", err)
		s.observer.OnError(ctx, s.GetName(), err)
	}
}
