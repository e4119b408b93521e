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

// This file defines the aggregation command, the pipeline's fan-in stage.
// It sorts the collected batch results by sequence number, submits the
// ordered descriptions to the summary model in one call, and persists the
// run-level record under the "<version>#full" key. Sorting happens here,
// explicitly: the describers complete in whatever order the model answers,
// and that order must never reach the prompt.
package commands

import (
	goctx "context"
	"fmt"
	"log/slog"
	"sort"
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

// Aggregator folds the ordered batch descriptions into one narrative
// summary and persists it as the video's aggregate record, the only record
// that carries the source URI and display URL.
type Aggregator struct {
	cor.BaseCommand
	generativeModel          cloud.GenerativeModel
	resolver                 *prompts.Resolver
	store                    services.AnalysisStore
	observer                 Observer
	callTimeout              time.Duration
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

func NewAggregator(
	name string,
	generativeModel cloud.GenerativeModel,
	resolver *prompts.Resolver,
	store services.AnalysisStore,
	observer Observer,
	callTimeout time.Duration) *Aggregator {
	out := &Aggregator{
		BaseCommand:     *cor.NewBaseCommand(name),
		generativeModel: generativeModel,
		resolver:        resolver,
		store:           store,
		observer:        observer,
		callTimeout:     callTimeout,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	return out
}

func (s *Aggregator) Execute(context cor.Context) {
	results := context.Get(s.GetInputParam()).([]model.DescriptionResult)
	video := context.Get(GetVideoParameterName()).(*model.Video)

	sort.Slice(results, func(i, j int) bool { return results[i].Sequence < results[j].Sequence })
	context.Add(GetBatchResultsParameterName(), results)

	summary := s.aggregate(context.GetContext(), video, results)

	if !summary.Ok {
		s.GetErrorCounter().Add(context.GetContext(), 1)
	} else {
		s.GetSuccessCounter().Add(context.GetContext(), 1)
	}
	context.Add(GetSummaryParameterName(), summary)
	context.Add(s.GetOutputParam(), summary)
}

// aggregate produces the summary result and persists the aggregate record.
// Like the describer, it degrades to a sentinel on any failure instead of
// propagating an error; the summary result is tagged so callers never
// inspect the text to learn the outcome.
func (s *Aggregator) aggregate(ctx goctx.Context, video *model.Video, results []model.DescriptionResult) model.DescriptionResult {
	spanCtx, span := s.Tracer.Start(ctx, fmt.Sprintf("%s_summarize", s.GetName()))
	span.SetAttributes(
		attribute.String("video_id", video.ID),
		attribute.Int("batches", len(results)),
	)
	defer span.End()

	summary := model.DescriptionResult{SequenceID: model.AggregateMarker}

	promptText, promptVersion, err := s.resolver.Resolve(spanCtx, prompts.AggregatePromptID)
	if err != nil {
		span.SetStatus(codes.Error, "prompt resolution failed")
		s.observer.OnError(spanCtx, s.GetName(), err)
		summary.Failure = model.FailurePrompt
		summary.Detail = err.Error()
		s.persist(spanCtx, video, prompts.VersionTag(prompts.AggregatePromptID, 0), model.SummarySentinel(model.FailurePrompt))
		return summary
	}
	summary.PromptVersion = promptVersion

	// A video with no frames still gets its aggregate record, with a
	// deterministic text instead of a model call.
	if len(results) == 0 {
		summary.Ok = true
		summary.Text = model.EmptyVideoSummary
		s.persist(spanCtx, video, promptVersion, summary.Text)
		span.SetStatus(codes.Ok, "empty video summarized")
		return summary
	}

	parts := make([]*genai.Part, 0, len(results)+1)
	parts = append(parts, &genai.Part{Text: promptText})
	for _, result := range results {
		parts = append(parts, &genai.Part{Text: result.SentinelText()})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	callCtx, cancel := goctx.WithTimeout(spanCtx, s.callTimeout)
	defer cancel()

	text, err := cloud.GenerateText(callCtx, s.geminiInputTokenCounter, s.geminiOutputTokenCounter, s.generativeModel, contents)
	if err != nil {
		span.SetStatus(codes.Error, "model invocation failed")
		s.observer.OnError(spanCtx, s.GetName(), fmt.Errorf("%w: %v", model.ErrModelInvocation, err))
		summary.Failure = model.FailureModel
		summary.Detail = err.Error()
		s.persist(spanCtx, video, promptVersion, model.SummarySentinel(model.FailureModel))
		return summary
	}

	summary.Ok = true
	summary.Text = text
	s.persist(spanCtx, video, promptVersion, text)
	span.SetStatus(codes.Ok, "summary created")
	return summary
}

// persist writes the aggregate record, logging and swallowing store
// failures.
func (s *Aggregator) persist(ctx goctx.Context, video *model.Video, promptVersion string, text string) {
	record := &model.AnalysisRecord{
		VideoID:   video.ID,
		RecordKey: model.AggregateRecordKey(promptVersion),
		Analysis:  text,
		VideoURI:  video.SourceURI,
		VideoURL:  video.URL,
	}
	if err := s.store.Put(ctx, record); err != nil {
		s.GetErrorCounter().Add(ctx, 1)
		slog.Error("failed to persist aggregate record", "video", video.ID, "key", record.RecordKey, "error", err)
		s.observer.OnError(ctx, s.GetName(), err)
	}
}
