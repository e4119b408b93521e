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

// Package prompts resolves versioned prompt templates from a key-value
// prompt store. Prompts are published in two steps: a new immutable version
// record is written first, then the prompt's "v0" pointer is advanced to
// name it. Resolution follows the pointer, so operators can iterate on
// prompt wording without redeploying the service, and a run keeps whatever
// version it resolved even if the pointer moves mid-run.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// PointerVersionID is the reserved version slot holding the latest-version
// pointer for each prompt.
const PointerVersionID = "v0"

// Well-known prompt identifiers used by the pipeline stages.
const (
	AnalysisPromptID  = "analysis-prompt"
	AggregatePromptID = "aggregate-prompt"
)

// Store is the versioned key-value surface the resolver reads from. The
// production implementation is Firestore; tests use in-memory maps.
type Store interface {
	// GetPointer reads the v0 pointer record for a prompt.
	GetPointer(ctx context.Context, promptID string) (*model.PromptVersionPointer, error)
	// GetVersion reads one immutable version record, e.g. versionID "v3".
	GetVersion(ctx context.Context, promptID string, versionID string) (*model.PromptTemplate, error)
}

// Resolver turns a prompt ID into an assembled prompt string plus the
// version tag recorded on the analysis records it produces.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// VersionTag renders the tag stored in record keys: the prompt ID with its
// "-prompt" suffix dropped, joined to the version number. "analysis-prompt"
// at version 3 becomes "analysis-v3".
func VersionTag(promptID string, latest int) string {
	return fmt.Sprintf("%s-v%d", strings.TrimSuffix(promptID, "-prompt"), latest)
}

// Assemble joins the template's non-empty sections with blank lines, in the
// fixed section order.
func Assemble(t *model.PromptTemplate) string {
	parts := make([]string, 0, 9)
	for _, section := range t.Sections() {
		if strings.TrimSpace(section) == "" {
			continue
		}
		parts = append(parts, section)
	}
	return strings.Join(parts, "\n\n")
}

// Resolve performs the two-step lookup: pointer, then the version it names.
// It returns the assembled prompt text and its version tag. Any store error
// or malformed pointer is reported as model.ErrPromptUnavailable; callers
// treat that as fatal for their unit of work and do not retry.
//
// The two reads are not transactional. A pointer advanced between them
// simply means this run uses the version it already read.
func (r *Resolver) Resolve(ctx context.Context, promptID string) (assembled string, version string, err error) {
	pointer, err := r.store.GetPointer(ctx, promptID)
	if err != nil {
		return "", "", fmt.Errorf("%w: reading pointer for %q: %v", model.ErrPromptUnavailable, promptID, err)
	}
	if pointer == nil || pointer.Latest < 1 {
		return "", "", fmt.Errorf("%w: prompt %q has no published version", model.ErrPromptUnavailable, promptID)
	}

	versionID := fmt.Sprintf("v%d", pointer.Latest)
	template, err := r.store.GetVersion(ctx, promptID, versionID)
	if err != nil {
		return "", "", fmt.Errorf("%w: reading %s of %q: %v", model.ErrPromptUnavailable, versionID, promptID, err)
	}

	assembled = Assemble(template)
	if assembled == "" {
		return "", "", fmt.Errorf("%w: %s of %q is empty", model.ErrPromptUnavailable, versionID, promptID)
	}
	return assembled, VersionTag(promptID, pointer.Latest), nil
}
