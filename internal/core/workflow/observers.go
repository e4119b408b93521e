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

// Observer implementations for the narrative pipeline. The logging observer
// is the default production telemetry path; the audit observer appends run
// outcomes to BigQuery. MultiObserver fans callbacks out so both can be
// attached at once.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// LoggingObserver reports pipeline progress through slog and OpenTelemetry
// counters.
type LoggingObserver struct {
	batchCounter       metric.Int64Counter
	batchFailedCounter metric.Int64Counter
	runCounter         metric.Int64Counter
	errorCounter       metric.Int64Counter
}

func NewLoggingObserver() *LoggingObserver {
	meter := otel.Meter(cor.MeterName)
	out := &LoggingObserver{}
	out.batchCounter, _ = meter.Int64Counter("pipeline.batches.complete")
	out.batchFailedCounter, _ = meter.Int64Counter("pipeline.batches.failed")
	out.runCounter, _ = meter.Int64Counter("pipeline.runs.complete")
	out.errorCounter, _ = meter.Int64Counter("pipeline.errors")
	return out
}

func (o *LoggingObserver) OnBatchComplete(ctx context.Context, video *model.Video, result model.DescriptionResult) {
	o.batchCounter.Add(ctx, 1)
	if !result.Ok {
		o.batchFailedCounter.Add(ctx, 1)
		slog.Warn("batch degraded",
			"video", video.ID,
			"sequence", result.SequenceID,
			"failure", result.Failure.String(),
			"detail", result.Detail)
		return
	}
	slog.Info("batch described", "video", video.ID, "sequence", result.SequenceID)
}

func (o *LoggingObserver) OnRunComplete(ctx context.Context, result *model.RunResult) {
	o.runCounter.Add(ctx, 1)
	slog.Info("run complete",
		"run_id", result.RunID,
		"video", result.VideoID,
		"status", result.Status.String(),
		"batches", result.BatchCount,
		"message", result.Message)
}

func (o *LoggingObserver) OnError(ctx context.Context, stage string, err error) {
	o.errorCounter.Add(ctx, 1)
	slog.Error("pipeline error", "stage", stage, "error", err)
}

// BigQueryAuditObserver appends one audit row per completed run. Insert
// failures are logged only; auditing never disturbs the pipeline.
type BigQueryAuditObserver struct {
	audit *services.AuditService
}

func NewBigQueryAuditObserver(audit *services.AuditService) *BigQueryAuditObserver {
	return &BigQueryAuditObserver{audit: audit}
}

func (o *BigQueryAuditObserver) OnBatchComplete(context.Context, *model.Video, model.DescriptionResult) {
}

func (o *BigQueryAuditObserver) OnRunComplete(ctx context.Context, result *model.RunResult) {
	failed := 0
	for _, batch := range result.Batches {
		if !batch.Ok {
			failed++
		}
	}
	record := &services.RunAuditRecord{
		RunID:         result.RunID,
		VideoID:       result.VideoID,
		Status:        result.Status.String(),
		Message:       result.Message,
		BatchCount:    result.BatchCount,
		FailedBatches: failed,
		CompletedAt:   time.Now().UTC(),
	}
	if err := o.audit.Insert(ctx, record); err != nil {
		slog.Error("failed to append run audit record", "run_id", result.RunID, "error", err)
	}
}

func (o *BigQueryAuditObserver) OnError(context.Context, string, error) {}

// MultiObserver fans every callback out to its members in order.
type MultiObserver struct {
	members []commands.Observer
}

func NewMultiObserver(members ...commands.Observer) *MultiObserver {
	return &MultiObserver{members: members}
}

func (o *MultiObserver) OnBatchComplete(ctx context.Context, video *model.Video, result model.DescriptionResult) {
	for _, member := range o.members {
		member.OnBatchComplete(ctx, video, result)
	}
}

func (o *MultiObserver) OnRunComplete(ctx context.Context, result *model.RunResult) {
	for _, member := range o.members {
		member.OnRunComplete(ctx, result)
	}
}

func (o *MultiObserver) OnError(ctx context.Context, stage string, err error) {
	for _, member := range o.members {
		member.OnError(ctx, stage, err)
	}
}
