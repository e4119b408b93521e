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
// pipeline. This file holds the video-level identity types and the transient
// frame batch structure that flows from the frame extractor to the batch
// describers. Frame batches live only for the duration of a single run; the
// frames themselves stay behind in the frame bucket independently of the
// pipeline's lifecycle.
package model

import (
	"fmt"
	"strings"
	"time"
)

// SequenceIDPrefix is the prefix of every batch sequence identifier.
// Sequence IDs are 1-based and rendered as "sequence-1", "sequence-2", ...
const SequenceIDPrefix = "sequence-"

// Video identifies one ingested source video. The ID is derived
// deterministically from the object's storage key so that re-processing the
// same object always maps onto the same set of analysis records.
type Video struct {
	ID         string    `json:"id"`          // Stable identifier derived from the storage key.
	SourceURI  string    `json:"source_uri"`  // The gs:// URI of the source object.
	URL        string    `json:"url"`         // A user-facing HTTPS URL for the same object.
	IngestedAt time.Time `json:"ingested_at"` // When the trigger for this video was observed.
}

// NewVideoID derives the stable video identifier from a storage object key.
// Path separators are folded into dashes so the ID is usable as a single
// key component in the result store.
func NewVideoID(objectKey string) string {
	return strings.ReplaceAll(objectKey, "/", "-")
}

// SequenceID renders the 1-based batch sequence identifier for index n.
func SequenceID(n int) string {
	return fmt.Sprintf("%s%d", SequenceIDPrefix, n)
}

// FrameBatch is an ordered group of still frames belonging to one video.
// It carries a denormalized copy of the video-level metadata so that the
// batch describer needs no additional lookups. Batches are created once by
// the frame extractor, consumed once by a describer, and then discarded.
type FrameBatch struct {
	VideoID    string   `json:"video_id"`
	SourceURI  string   `json:"video_source_uri"`
	VideoURL   string   `json:"video_url"`
	SequenceID string   `json:"sequence_id"` // "sequence-<n>", n >= 1.
	Sequence   int      `json:"sequence"`    // The numeric value of SequenceID, for sorting.
	ImagePath  string   `json:"image_path"`  // Object prefix in the frame bucket holding this video's frames.
	Frames     []string `json:"image_list"`  // Frame object names, lexicographic order == temporal order.
}
