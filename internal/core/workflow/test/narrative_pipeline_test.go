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

// Package workflow_test tests the narrative workflow's message handling at
// the chain level: which notifications start a run, and how a failed run is
// reported. The stages behind extraction have their own tests against
// in-memory fakes in the commands package.
package workflow_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/workflow"
	test "github.com/mwira/gcp-go-video-narrative/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// recordingObserver remembers every callback for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	runs   []*model.RunResult
	errors []error
}

func (o *recordingObserver) OnBatchComplete(context.Context, *model.Video, model.DescriptionResult) {
}

func (o *recordingObserver) OnRunComplete(_ context.Context, result *model.RunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, result)
}

func (o *recordingObserver) OnError(_ context.Context, _ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, err)
}

var _ commands.Observer = (*recordingObserver)(nil)

// newPipeline builds a workflow whose cloud-facing dependencies are nil.
// The tests here exercise only the paths that end before those
// dependencies are touched.
func newPipeline(observer commands.Observer) *workflow.VideoNarrativeWorkflow {
	return workflow.NewVideoNarrativePipeline(
		workflow.PipelineConfig{
			BatchSize:        20,
			ConcurrencyLimit: 2,
			CallTimeout:      time.Minute,
		},
		workflow.PipelineDeps{
			FfmpegPath: "/usr/bin/ffmpeg",
			Observer:   observer,
		})
}

// TestPipelineSkipsPlaceholderNotification verifies that a zero-byte folder
// placeholder ends the chain without errors, output, or a run report, so
// the listener acks the message as handled.
func TestPipelineSkipsPlaceholderNotification(t *testing.T) {
	traceCtx, span := tracer.Start(context.Background(), "placeholder-notification-test")
	defer span.End()

	observer := &recordingObserver{}
	pipeline := newPipeline(observer)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	chainCtx.Add(cor.CtxIn, test.GetTestFolderMessageText())

	pipeline.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(observer.runs))
	assert.Equal(t, 0, len(observer.errors))
}

// TestPipelineReportsFailedRun verifies that an unparseable notification
// produces a failed run report: the chain records the error and the
// observer receives a RunFailed result naming it.
func TestPipelineReportsFailedRun(t *testing.T) {
	traceCtx, span := tracer.Start(context.Background(), "failed-run-test")
	defer span.End()

	observer := &recordingObserver{}
	pipeline := newPipeline(observer)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	chainCtx.Add(cor.CtxIn, "definitely not a notification")

	pipeline.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, 1, len(observer.runs))
	run := observer.runs[0]
	logger.Info("failed run reported", "run_id", run.RunID, "message", run.Message)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.NotEmpty(t, run.RunID)
	assert.NotEmpty(t, run.Message)
	assert.NotEmpty(t, observer.errors)
}

// TestPipelineReleasesTempFilesOnRunEnd verifies that temp files registered
// on the run context, as the download step registers the source video, are
// removed when the run ends, whether it was skipped or failed.
func TestPipelineReleasesTempFilesOnRunEnd(t *testing.T) {
	for name, input := range map[string]string{
		"skipped": test.GetTestFolderMessageText(),
		"failed":  "definitely not a notification",
	} {
		file, err := os.CreateTemp(t.TempDir(), "video-narrative-")
		test.HandleErr(err, t)
		test.HandleErr(file.Close(), t)

		pipeline := newPipeline(&recordingObserver{})
		chainCtx := cor.NewBaseContext()
		chainCtx.SetContext(context.Background())
		chainCtx.AddTempFile(file.Name())
		chainCtx.Add(cor.CtxIn, input)

		pipeline.Execute(chainCtx)

		_, statErr := os.Stat(file.Name())
		assert.True(t, os.IsNotExist(statErr), "run %q left its temp file behind", name)
	}
}

// TestPipelineNilObserverDefaultsToNop verifies construction tolerates a
// nil observer; the degraded paths then report nowhere instead of
// panicking.
func TestPipelineNilObserverDefaultsToNop(t *testing.T) {
	pipeline := workflow.NewVideoNarrativePipeline(
		workflow.PipelineConfig{BatchSize: 20, ConcurrencyLimit: 1, CallTimeout: time.Minute},
		workflow.PipelineDeps{})

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "definitely not a notification")

	assert.NotPanics(t, func() { pipeline.Execute(chainCtx) })
	assert.True(t, chainCtx.HasErrors())
}
