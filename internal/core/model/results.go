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

// This file contains the in-memory result types that flow between pipeline
// stages. These objects are transient: they are passed between commands in a
// chain during a single run and are never persisted in this form. What does
// get persisted is derived from them (AnalysisRecord, and the sentinel texts
// for degraded batches).
package model

import "fmt"

// FailureKind classifies why a describe or aggregate stage degraded.
// Stages branch on this tag; the human-readable sentinel text is derived
// from it for persistence only and is never parsed back.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailurePrompt means the stage's prompt could not be resolved from the
	// prompt store.
	FailurePrompt
	// FailureModel means the generative model call itself failed or timed out.
	FailureModel
	// FailureFrameLoad means one or more frame objects could not be read
	// from the frame bucket.
	FailureFrameLoad
)

// String returns the short phrase embedded in sentinel texts.
func (k FailureKind) String() string {
	switch k {
	case FailurePrompt:
		return "prompt unavailable"
	case FailureModel:
		return "model invocation failure"
	case FailureFrameLoad:
		return "frame load failure"
	default:
		return "unknown failure"
	}
}

// DescriptionResult is the outcome of describing one frame batch. It is a
// tagged value: either Ok with the model's text, or Failed with a failure
// kind and detail. A Failed result never aborts the run; it is persisted as
// a sentinel record and carried forward so the aggregator still sees one
// entry per batch.
type DescriptionResult struct {
	SequenceID    string      `json:"sequence_id"`
	Sequence      int         `json:"sequence"`
	PromptVersion string      `json:"prompt_version,omitempty"`
	Ok            bool        `json:"ok"`
	Text          string      `json:"text,omitempty"`
	Failure       FailureKind `json:"failure,omitempty"`
	Detail        string      `json:"detail,omitempty"`
}

// OkDescription builds a successful batch result.
func OkDescription(batch *FrameBatch, promptVersion string, text string) DescriptionResult {
	return DescriptionResult{
		SequenceID:    batch.SequenceID,
		Sequence:      batch.Sequence,
		PromptVersion: promptVersion,
		Ok:            true,
		Text:          text,
	}
}

// FailedDescription builds a degraded batch result.
func FailedDescription(batch *FrameBatch, kind FailureKind, detail string) DescriptionResult {
	return DescriptionResult{
		SequenceID: batch.SequenceID,
		Sequence:   batch.Sequence,
		Ok:         false,
		Failure:    kind,
		Detail:     detail,
	}
}

// SentinelText renders the text persisted in place of a description when the
// batch degraded. For Ok results it returns the model text unchanged.
func (r DescriptionResult) SentinelText() string {
	if r.Ok {
		return r.Text
	}
	return fmt.Sprintf("Empty analysis due to %s", r.Failure)
}

// SummarySentinel renders the text persisted in place of an aggregate
// summary when the aggregation stage degraded.
func SummarySentinel(kind FailureKind) string {
	return fmt.Sprintf("Empty summary due to %s", kind)
}

// EmptyVideoSummary is the deterministic summary persisted for a video that
// yielded no frames at all. Extraction succeeded; there was nothing to
// describe.
const EmptyVideoSummary = "Empty summary: no frames were extracted from this video"

// RunStatus is the terminal status of one pipeline run.
type RunStatus int

const (
	RunSucceeded RunStatus = iota
	// RunDegraded means the run completed but at least one stage fell back
	// to a sentinel record.
	RunDegraded
	// RunFailed means extraction failed and no records were written.
	RunFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunSucceeded:
		return "succeeded"
	case RunDegraded:
		return "degraded"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult is the final outcome of one video's pipeline run, returned by
// the workflow and published to observers.
type RunResult struct {
	RunID      string              `json:"run_id"`
	VideoID    string              `json:"video_id"`
	Status     RunStatus           `json:"status"`
	Message    string              `json:"message,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	BatchCount int                 `json:"batch_count"`
	Batches    []DescriptionResult `json:"batches,omitempty"`
}
