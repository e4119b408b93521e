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

// Package commands_test contains unit tests for the pipeline commands. This
// file provides the in-memory fakes shared across the package: a scripted
// generative model, an analysis record store, a frame loader, a prompt
// store, and a recording observer. The describe stage runs its batches
// concurrently, so every fake is safe for parallel use.
package commands_test

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// fakeModel implements cloud.GenerativeModel with a scripted response. When
// err is set every call fails; otherwise every call returns text.
type fakeModel struct {
	mu           sync.Mutex
	text         string
	err          error
	calls        int
	lastContents []*genai.Content
}

func (m *fakeModel) GenerateContent(_ context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastContents = contents
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: m.text}}}},
		},
	}, nil
}

func (m *fakeModel) Name() string { return "fake-model" }

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memAnalysisStore implements services.AnalysisStore in memory, keyed the
// same way the Firestore layout is: video ID plus record key. A non-nil err
// makes every Put fail.
type memAnalysisStore struct {
	mu      sync.Mutex
	records map[string]*model.AnalysisRecord
	err     error
}

func newMemAnalysisStore() *memAnalysisStore {
	return &memAnalysisStore{records: make(map[string]*model.AnalysisRecord)}
}

func (s *memAnalysisStore) Put(_ context.Context, record *model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records[record.VideoID+"/"+record.RecordKey] = record
	return nil
}

func (s *memAnalysisStore) get(videoID, recordKey string) *model.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[videoID+"/"+recordKey]
}

func (s *memAnalysisStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// memFrameLoader implements commands.FrameLoader. Frames named in failures
// report a read error.
type memFrameLoader struct {
	failures map[string]bool
}

func (l *memFrameLoader) ReadFrame(_ context.Context, path string, name string) ([]byte, error) {
	if l.failures[name] {
		return nil, fmt.Errorf("failed to open frame %s/%s", path, name)
	}
	return []byte("png-bytes-" + name), nil
}

// memPromptStore implements prompts.Store with fixed maps.
type memPromptStore struct {
	pointers map[string]*model.PromptVersionPointer
	versions map[string]*model.PromptTemplate
}

func newMemPromptStore() *memPromptStore {
	return &memPromptStore{
		pointers: make(map[string]*model.PromptVersionPointer),
		versions: make(map[string]*model.PromptTemplate),
	}
}

// publish registers a version and points v0 at it.
func (s *memPromptStore) publish(promptID string, version int, template *model.PromptTemplate) {
	s.pointers[promptID] = &model.PromptVersionPointer{Latest: version}
	s.versions[fmt.Sprintf("%s/v%d", promptID, version)] = template
}

func (s *memPromptStore) GetPointer(_ context.Context, promptID string) (*model.PromptVersionPointer, error) {
	pointer, ok := s.pointers[promptID]
	if !ok {
		return nil, fmt.Errorf("no pointer for %s", promptID)
	}
	return pointer, nil
}

func (s *memPromptStore) GetVersion(_ context.Context, promptID string, versionID string) (*model.PromptTemplate, error) {
	template, ok := s.versions[promptID+"/"+versionID]
	if !ok {
		return nil, fmt.Errorf("no version %s for %s", versionID, promptID)
	}
	return template, nil
}

// recordingObserver implements commands.Observer and remembers everything it
// was told.
type recordingObserver struct {
	mu      sync.Mutex
	batches []model.DescriptionResult
	runs    []*model.RunResult
	errors  []error
}

func (o *recordingObserver) OnBatchComplete(_ context.Context, _ *model.Video, result model.DescriptionResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, result)
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

func (o *recordingObserver) batchCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.batches)
}

var _ commands.Observer = (*recordingObserver)(nil)

// testVideo is the video fixture shared by the command tests.
func testVideo() *model.Video {
	return &model.Video{
		ID:        "trailers-test-trailer-001.mp4",
		SourceURI: "gs://narrative_video_uploads/trailers/test-trailer-001.mp4",
		URL:       "https://storage.mtls.cloud.google.com/narrative_video_uploads/trailers/test-trailer-001.mp4",
	}
}

// frameNames renders n zero-padded frame file names.
func frameNames(n int) []string {
	frames := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		frames = append(frames, fmt.Sprintf("%05d.png", i))
	}
	return frames
}
