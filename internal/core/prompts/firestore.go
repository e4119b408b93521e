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

package prompts

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// FirestoreStore implements Store on a Firestore collection laid out as
// {collection}/{promptID}/versions/{versionID}, with the v0 document holding
// the latest-version pointer.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) versionDoc(promptID, versionID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(promptID).Collection("versions").Doc(versionID)
}

func (s *FirestoreStore) GetPointer(ctx context.Context, promptID string) (*model.PromptVersionPointer, error) {
	snap, err := s.versionDoc(promptID, PointerVersionID).Get(ctx)
	if err != nil {
		return nil, err
	}
	var pointer model.PromptVersionPointer
	if err := snap.DataTo(&pointer); err != nil {
		return nil, err
	}
	return &pointer, nil
}

func (s *FirestoreStore) GetVersion(ctx context.Context, promptID string, versionID string) (*model.PromptTemplate, error) {
	snap, err := s.versionDoc(promptID, versionID).Get(ctx)
	if err != nil {
		return nil, err
	}
	var template model.PromptTemplate
	if err := snap.DataTo(&template); err != nil {
		return nil, err
	}
	return &template, nil
}

// Publish writes a new version record for the prompt and then advances the
// v0 pointer to it. The two writes are deliberately sequential rather than
// transactional: readers between the writes still resolve the prior version.
func (s *FirestoreStore) Publish(ctx context.Context, promptID string, template *model.PromptTemplate) (version int, err error) {
	pointer, err := s.GetPointer(ctx, promptID)
	if err != nil {
		// A missing pointer means this is the prompt's first version.
		pointer = &model.PromptVersionPointer{Latest: 0}
	}

	version = pointer.Latest + 1
	versionID := fmt.Sprintf("v%d", version)

	if _, err := s.versionDoc(promptID, versionID).Set(ctx, template); err != nil {
		return 0, fmt.Errorf("writing %s of %q: %w", versionID, promptID, err)
	}
	if _, err := s.versionDoc(promptID, PointerVersionID).Set(ctx, &model.PromptVersionPointer{Latest: version}); err != nil {
		return 0, fmt.Errorf("advancing pointer of %q: %w", promptID, err)
	}
	return version, nil
}
