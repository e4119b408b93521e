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

// Package services contains the data access layer: the analysis record
// store, the run audit sink, and signed URL generation for the viewer.
package services

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
	"google.golang.org/api/iterator"
)

// AnalysisStore is the write surface the pipeline commands depend on. Put
// must be an idempotent overwrite keyed on (VideoID, RecordKey) so a retried
// run converges on the same set of records.
type AnalysisStore interface {
	Put(ctx context.Context, record *model.AnalysisRecord) error
}

// AnalysisService implements AnalysisStore on Firestore and adds the read
// paths used by the review API. Records live under
// {collection}/{videoID}/records/{recordKey}; a document write with a fixed
// ID is last-write-wins, which provides the overwrite semantics.
type AnalysisService struct {
	Client     *firestore.Client
	Collection string
}

func NewAnalysisService(client *firestore.Client, collection string) *AnalysisService {
	return &AnalysisService{Client: client, Collection: collection}
}

func (s *AnalysisService) videoDoc(videoID string) *firestore.DocumentRef {
	return s.Client.Collection(s.Collection).Doc(videoID)
}

// Put writes the record under its composed key, stamping Created if the
// caller left it zero.
func (s *AnalysisService) Put(ctx context.Context, record *model.AnalysisRecord) error {
	if record.Created.IsZero() {
		record.Created = time.Now().UTC()
	}
	_, err := s.videoDoc(record.VideoID).Collection("records").Doc(record.RecordKey).Set(ctx, record)
	return err
}

// Get fetches one record by its exact key.
func (s *AnalysisService) Get(ctx context.Context, videoID string, recordKey string) (*model.AnalysisRecord, error) {
	snap, err := s.videoDoc(videoID).Collection("records").Doc(recordKey).Get(ctx)
	if err != nil {
		return nil, err
	}
	var record model.AnalysisRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByVideo returns a video's records ordered by record key. A non-empty
// keyPrefix narrows the listing, e.g. "analysis-v3#" for one run's batch
// records. The \uf8ff sentinel is the conventional upper bound for a
// Firestore prefix range on document IDs.
func (s *AnalysisService) ListByVideo(ctx context.Context, videoID string, keyPrefix string) ([]*model.AnalysisRecord, error) {
	query := s.videoDoc(videoID).Collection("records").OrderBy(firestore.DocumentID, firestore.Asc)
	if keyPrefix != "" {
		query = query.StartAt(keyPrefix).EndAt(keyPrefix + "\uf8ff")
	}

	records := make([]*model.AnalysisRecord, 0)
	itr := query.Documents(ctx)
	defer itr.Stop()
	for {
		snap, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var record model.AnalysisRecord
		if err := snap.DataTo(&record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, nil
}

// ListVideos returns the IDs of all videos that have at least one analysis
// record.
func (s *AnalysisService) ListVideos(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	itr := s.Client.Collection(s.Collection).DocumentRefs(ctx)
	for {
		ref, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}
