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

// Package model defines the core data structures for the video narrative
// pipeline. This file contains the persistent types: the analysis record
// written to the result store by the batch describer and the aggregator, and
// the versioned prompt template read from the prompt store.
//
// Record keys compose the prompt version with either a batch sequence ID or
// the literal "full" marker, e.g. "analysis-v3#sequence-2" or
// "aggregate-v1#full". The key uniquely identifies a record within a video;
// writing the same key again overwrites the prior record, which is what makes
// re-processing a video idempotent.
package model

import "time"

// AggregateMarker is the record-key suffix used for the run-level summary
// instead of a batch sequence ID.
const AggregateMarker = "full"

// BatchRecordKey composes the result-store key for a per-batch description.
func BatchRecordKey(promptVersion, sequenceID string) string {
	return promptVersion + "#" + sequenceID
}

// AggregateRecordKey composes the result-store key for the final summary.
func AggregateRecordKey(promptVersion string) string {
	return promptVersion + "#" + AggregateMarker
}

// AnalysisRecord is one persisted fact about a video: either the description
// of one frame batch or the aggregate narrative summary. Records are written
// once per key and never updated in place or deleted by the pipeline; a
// retried run overwrites the whole record under the same key.
//
// VideoURI and VideoURL are populated only on aggregate records - the
// aggregator is the single stage that writes video-level location fields.
type AnalysisRecord struct {
	VideoID   string    `firestore:"video_id" json:"video_id"`
	RecordKey string    `firestore:"record_key" json:"record_key"`
	Analysis  string    `firestore:"analysis" json:"analysis"`
	VideoURI  string    `firestore:"video_uri,omitempty" json:"video_uri,omitempty"`
	VideoURL  string    `firestore:"video_url,omitempty" json:"video_url,omitempty"`
	Created   time.Time `firestore:"created" json:"created"`
}

// PromptVersionPointer is the distinguished "v0" record of a prompt. It holds
// only the number of the current latest version. Publishing a new prompt
// version is a two-step write: create the new version record, then advance
// this pointer; in-flight runs keep whatever version they already resolved.
type PromptVersionPointer struct {
	Latest int `firestore:"latest" json:"latest"`
}

// PromptTemplate is one immutable version of a named prompt. The nine
// sections are assembled in declaration order, separated by blank lines,
// with empty sections skipped. The section layout follows the common
// task-context / tone / rules / examples / input / immediate-task /
// step-by-step / formatting / prefill structure for instruction prompts.
type PromptTemplate struct {
	TaskContext      string `firestore:"task_context" json:"task_context"`
	ToneContext      string `firestore:"tone_context" json:"tone_context"`
	TaskDescription  string `firestore:"task_description" json:"task_description"`
	Examples         string `firestore:"examples" json:"examples"`
	InputData        string `firestore:"input_data" json:"input_data"`
	ImmediateTask    string `firestore:"immediate_task" json:"immediate_task"`
	Precognition     string `firestore:"precognition" json:"precognition"`
	OutputFormatting string `firestore:"output_formatting" json:"output_formatting"`
	Prefill          string `firestore:"prefill" json:"prefill"`
}

// Sections returns the template's sections in assembly order.
func (p *PromptTemplate) Sections() []string {
	return []string{
		p.TaskContext,
		p.ToneContext,
		p.TaskDescription,
		p.Examples,
		p.InputData,
		p.ImmediateTask,
		p.Precognition,
		p.OutputFormatting,
		p.Prefill,
	}
}
