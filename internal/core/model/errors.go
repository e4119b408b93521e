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

package model

import "errors"

// Sentinel errors for the pipeline's failure taxonomy. Commands wrap these
// with fmt.Errorf("...: %w", ...) so callers can classify with errors.Is
// while keeping the contextual detail.
var (
	// ErrPromptUnavailable indicates the prompt store could not produce an
	// assembled prompt (missing pointer, missing version, or a read error).
	ErrPromptUnavailable = errors.New("prompt unavailable")

	// ErrExtractionFailure indicates frame extraction failed. This is the
	// only error that aborts a run.
	ErrExtractionFailure = errors.New("frame extraction failure")

	// ErrModelInvocation indicates a generative model call failed or
	// exceeded its time budget.
	ErrModelInvocation = errors.New("model invocation failure")
)
