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

// This file provides factory functions for the default prompt templates.
// They are used to seed a fresh prompt store (see cmd/server setup) and by
// tests that need a realistic template without touching Firestore. Operators
// are expected to publish refined versions on top of these; the pipeline
// always resolves whatever version the store's pointer names.
package model

// DefaultAnalysisPrompt returns the seed template for the per-batch
// description prompt. The InputData section is intentionally empty: the
// frames themselves are attached as inline image parts, not interpolated
// into the prompt text.
func DefaultAnalysisPrompt() *PromptTemplate {
	return &PromptTemplate{
		TaskContext: "You are a careful video analyst. You are shown a sequence of " +
			"still frames sampled at one frame per second from a single continuous " +
			"segment of a video.",
		ToneContext: "Write in plain, factual prose. Do not speculate beyond what " +
			"is visible in the frames.",
		TaskDescription: "Describe what happens across this segment as a short " +
			"narrative: the setting, the people or objects present, and how the " +
			"scene changes from the first frame to the last.",
		ImmediateTask: "Describe the segment shown in the attached frames.",
		OutputFormatting: "Respond with one or two paragraphs of plain text. " +
			"Do not number the frames and do not use markdown.",
	}
}

// DefaultAggregatePrompt returns the seed template for the run-level summary
// prompt. Its input is the ordered list of segment descriptions produced by
// the analysis prompt, attached as separate text parts.
func DefaultAggregatePrompt() *PromptTemplate {
	return &PromptTemplate{
		TaskContext: "You are a careful video analyst. You are given an ordered " +
			"series of descriptions, each covering one consecutive segment of the " +
			"same video.",
		ToneContext: "Write in plain, factual prose.",
		TaskDescription: "Combine the segment descriptions into a single coherent " +
			"narrative summary of the whole video. Preserve the order of events. " +
			"Some descriptions may state that analysis was unavailable for their " +
			"segment; acknowledge gaps briefly rather than inventing content.",
		ImmediateTask: "Summarize the video described by the attached segments.",
		OutputFormatting: "Respond with a single plain-text summary of at most " +
			"three paragraphs. Do not use markdown.",
	}
}
