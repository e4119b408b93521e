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

package commands_test

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/prompts"
	"github.com/stretchr/testify/assert"
)

// describerFixture bundles the fakes a describer test needs.
type describerFixture struct {
	model    *fakeModel
	store    *memAnalysisStore
	loader   *memFrameLoader
	promptDB *memPromptStore
	observer *recordingObserver
}

func newDescriberFixture() *describerFixture {
	f := &describerFixture{
		model:    &fakeModel{text: "people crossing a rainy street"},
		store:    newMemAnalysisStore(),
		loader:   &memFrameLoader{},
		promptDB: newMemPromptStore(),
		observer: &recordingObserver{},
	}
	f.promptDB.publish(prompts.AnalysisPromptID, 1, &model.PromptTemplate{
		TaskContext: "Describe the frames.",
	})
	return f
}

func (f *describerFixture) describer(concurrency int) *commands.BatchDescriber {
	return commands.NewBatchDescriber(
		"describe-batches",
		f.model,
		prompts.NewResolver(f.promptDB),
		f.loader,
		f.store,
		f.observer,
		concurrency,
		time.Minute)
}

// run executes the describer over the partitioned batches and returns the
// collected results sorted by sequence for stable assertions.
func (f *describerFixture) run(t *testing.T, frameCount, batchSize, concurrency int) (cor.Context, []model.DescriptionResult) {
	video := testVideo()
	batches := commands.PartitionFrames(video, "trailers/test-trailer-001.mp4", frameNames(frameCount), batchSize)

	chainCtx := newChainContext()
	chainCtx.Add(commands.GetVideoParameterName(), video)
	chainCtx.Add(cor.CtxIn, batches)

	f.describer(concurrency).Execute(chainCtx)

	results, ok := chainCtx.Get(commands.GetBatchResultsParameterName()).([]model.DescriptionResult)
	assert.True(t, ok)
	sort.Slice(results, func(i, j int) bool { return results[i].Sequence < results[j].Sequence })
	return chainCtx, results
}

// TestBatchDescriberDescribesAllBatches runs the 41-frame scenario: three
// batches, all described, one record per batch under the resolved prompt
// version.
func TestBatchDescriberDescribesAllBatches(t *testing.T) {
	f := newDescriberFixture()
	chainCtx, results := f.run(t, 41, 20, 4)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 3, len(results))
	for i, result := range results {
		assert.True(t, result.Ok)
		assert.Equal(t, i+1, result.Sequence)
		assert.Equal(t, "analysis-v1", result.PromptVersion)
		assert.Equal(t, "people crossing a rainy street", result.Text)
	}

	assert.Equal(t, 3, f.store.size())
	record := f.store.get("trailers-test-trailer-001.mp4", "analysis-v1#sequence-2")
	assert.NotNil(t, record)
	assert.Equal(t, "people crossing a rainy street", record.Analysis)
	// Batch records never carry the video location fields.
	assert.Equal(t, "", record.VideoURI)

	assert.Equal(t, 3, f.model.callCount())
	assert.Equal(t, 3, f.observer.batchCount())
}

// TestBatchDescriberContainsFrameLoadFailure verifies that one unreadable
// frame degrades only its own batch: the failed batch persists a sentinel
// and the siblings describe normally, with no error on the chain.
func TestBatchDescriberContainsFrameLoadFailure(t *testing.T) {
	f := newDescriberFixture()
	// Frame 00021.png is the first frame of batch 2.
	f.loader.failures = map[string]bool{"00021.png": true}

	chainCtx, results := f.run(t, 41, 20, 4)

	assert.False(t, chainCtx.HasErrors())
	assert.True(t, results[0].Ok)
	assert.False(t, results[1].Ok)
	assert.Equal(t, model.FailureFrameLoad, results[1].Failure)
	assert.True(t, results[2].Ok)

	record := f.store.get("trailers-test-trailer-001.mp4", "analysis-v1#sequence-2")
	assert.NotNil(t, record)
	assert.Equal(t, "Empty analysis due to frame load failure", record.Analysis)
}

// TestBatchDescriberModelFailure verifies that a failing model call degrades
// every batch to a persisted sentinel without erroring the chain.
func TestBatchDescriberModelFailure(t *testing.T) {
	f := newDescriberFixture()
	f.model.err = errors.New("deadline exceeded")

	chainCtx, results := f.run(t, 41, 20, 2)

	assert.False(t, chainCtx.HasErrors())
	for _, result := range results {
		assert.False(t, result.Ok)
		assert.Equal(t, model.FailureModel, result.Failure)
	}
	record := f.store.get("trailers-test-trailer-001.mp4", "analysis-v1#sequence-1")
	assert.NotNil(t, record)
	assert.Equal(t, "Empty analysis due to model invocation failure", record.Analysis)
}

// TestBatchDescriberPromptFailure verifies that an unresolvable prompt
// degrades the batches and keys their sentinel records with the version-0
// tag, since no version was resolved.
func TestBatchDescriberPromptFailure(t *testing.T) {
	f := newDescriberFixture()
	f.promptDB.pointers = map[string]*model.PromptVersionPointer{}

	chainCtx, results := f.run(t, 41, 20, 2)

	assert.False(t, chainCtx.HasErrors())
	for _, result := range results {
		assert.False(t, result.Ok)
		assert.Equal(t, model.FailurePrompt, result.Failure)
	}
	record := f.store.get("trailers-test-trailer-001.mp4", "analysis-v0#sequence-1")
	assert.NotNil(t, record)
	assert.Equal(t, "Empty analysis due to prompt unavailable", record.Analysis)
	// The model is never invoked without a prompt.
	assert.Equal(t, 0, f.model.callCount())
}

// TestBatchDescriberSwallowsStoreFailure verifies that persistence failures
// are contained: the results still flow to the aggregator and the chain
// carries no error.
func TestBatchDescriberSwallowsStoreFailure(t *testing.T) {
	f := newDescriberFixture()
	f.store.err = errors.New("firestore unavailable")

	chainCtx, results := f.run(t, 41, 20, 2)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 3, len(results))
	for _, result := range results {
		assert.True(t, result.Ok)
	}
	assert.Equal(t, 0, f.store.size())
}

// TestBatchDescriberOverwritesOnReprocess verifies idempotency: describing
// the same video twice under the same prompt version lands on the same
// record keys.
func TestBatchDescriberOverwritesOnReprocess(t *testing.T) {
	f := newDescriberFixture()
	f.run(t, 41, 20, 2)
	assert.Equal(t, 3, f.store.size())

	f.model.text = "a second viewing"
	f.run(t, 41, 20, 2)

	assert.Equal(t, 3, f.store.size())
	record := f.store.get("trailers-test-trailer-001.mp4", "analysis-v1#sequence-1")
	assert.Equal(t, "a second viewing", record.Analysis)
}

// TestBatchDescriberZeroBatches verifies the empty video passes through as
// an empty result set rather than blocking or erroring.
func TestBatchDescriberZeroBatches(t *testing.T) {
	f := newDescriberFixture()
	chainCtx, results := f.run(t, 0, 20, 4)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, len(results))
	assert.Equal(t, 0, f.model.callCount())
}
