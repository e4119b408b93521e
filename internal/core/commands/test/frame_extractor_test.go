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
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goctx "context"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"github.com/mwira/gcp-go-video-narrative/internal/core/prompts"
	"github.com/stretchr/testify/assert"
)

// memFrameSink records the frames it receives.
type memFrameSink struct {
	mu     sync.Mutex
	writes []string
}

func (s *memFrameSink) WriteFrame(_ goctx.Context, path string, name string, _ io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, path+"/"+name)
	return nil
}

func testGCSObject() *cloud.GCSObject {
	return &cloud.GCSObject{
		Bucket:   "narrative_video_uploads",
		Name:     "trailers/test-trailer-001.mp4",
		MIMEType: "video/mp4",
	}
}

// TestFrameExtractorAbortsRunOnCorruptVideo verifies the fatal-extraction
// contract: a file that is not a recognizable video stops the chain with an
// extraction failure before any frame is uploaded, any model is called, or
// any record is written.
func TestFrameExtractorAbortsRunOnCorruptVideo(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "upload.mp4")
	assert.NoError(t, os.WriteFile(videoPath, []byte("this is not a video container"), 0o600))

	store := newMemAnalysisStore()
	promptDB := newMemPromptStore()
	promptDB.publish(prompts.AnalysisPromptID, 1, &model.PromptTemplate{TaskContext: "Describe the frames."})
	promptDB.publish(prompts.AggregatePromptID, 1, &model.PromptTemplate{TaskContext: "Summarize the descriptions."})
	resolver := prompts.NewResolver(promptDB)
	observer := &recordingObserver{}
	sink := &memFrameSink{}
	describeModel := &fakeModel{text: "never used"}

	chain := cor.NewBaseChain("narrative-stages")
	chain.AddCommand(commands.NewFrameExtractor("extract-frames", "/usr/bin/ffmpeg", sink, 20, time.Minute))
	chain.AddCommand(commands.NewBatchDescriber(
		"describe-batches", describeModel, resolver, &memFrameLoader{}, store, observer, 2, time.Minute))
	chain.AddCommand(commands.NewAggregator(
		"aggregate-summary", describeModel, resolver, store, observer, time.Minute))
	chain.AddCommand(commands.NewRunReporter("report-run", observer))

	chainCtx := newChainContext()
	chainCtx.Add(commands.GetVideoParameterName(), testVideo())
	chainCtx.Add(cloud.GetGCSObjectName(), testGCSObject())
	chainCtx.Add(cor.CtxIn, videoPath)

	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.True(t, errors.Is(chainCtx.GetErrors()["extract-frames"], model.ErrExtractionFailure))
	assert.Equal(t, 0, store.size())
	assert.Equal(t, 0, len(sink.writes))
	assert.Equal(t, 0, describeModel.callCount())
}

// TestFrameExtractorMissingFile verifies an unreadable video path is an
// extraction failure rather than a panic or a silent skip.
func TestFrameExtractorMissingFile(t *testing.T) {
	extractor := commands.NewFrameExtractor("extract-frames", "/usr/bin/ffmpeg", &memFrameSink{}, 20, time.Minute)

	chainCtx := newChainContext()
	chainCtx.Add(commands.GetVideoParameterName(), testVideo())
	chainCtx.Add(cloud.GetGCSObjectName(), testGCSObject())
	chainCtx.Add(cor.CtxIn, filepath.Join(t.TempDir(), "missing.mp4"))

	extractor.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.True(t, errors.Is(chainCtx.GetErrors()["extract-frames"], model.ErrExtractionFailure))
}
