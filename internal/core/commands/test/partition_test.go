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
	"testing"

	"github.com/mwira/gcp-go-video-narrative/internal/core/commands"
	"github.com/stretchr/testify/assert"
)

// TestPartitionFramesSplitsIntoBatches verifies the canonical case: 41
// frames at batch size 20 yield three batches of 20, 20, and 1 frame, with
// consecutive 1-based sequence IDs and the frame order preserved.
func TestPartitionFramesSplitsIntoBatches(t *testing.T) {
	video := testVideo()
	frames := frameNames(41)

	batches := commands.PartitionFrames(video, "trailers/test-trailer-001.mp4", frames, 20)

	assert.Equal(t, 3, len(batches))
	assert.Equal(t, 20, len(batches[0].Frames))
	assert.Equal(t, 20, len(batches[1].Frames))
	assert.Equal(t, 1, len(batches[2].Frames))

	assert.Equal(t, "sequence-1", batches[0].SequenceID)
	assert.Equal(t, "sequence-2", batches[1].SequenceID)
	assert.Equal(t, "sequence-3", batches[2].SequenceID)
	assert.Equal(t, 3, batches[2].Sequence)

	// Order within and across batches follows the input order.
	assert.Equal(t, "00001.png", batches[0].Frames[0])
	assert.Equal(t, "00021.png", batches[1].Frames[0])
	assert.Equal(t, "00041.png", batches[2].Frames[0])

	// Each batch carries the denormalized video identity.
	for _, batch := range batches {
		assert.Equal(t, video.ID, batch.VideoID)
		assert.Equal(t, video.SourceURI, batch.SourceURI)
		assert.Equal(t, "trailers/test-trailer-001.mp4", batch.ImagePath)
	}
}

// TestPartitionFramesExactMultiple verifies there is no trailing empty batch
// when the frame count divides evenly.
func TestPartitionFramesExactMultiple(t *testing.T) {
	batches := commands.PartitionFrames(testVideo(), "path", frameNames(40), 20)
	assert.Equal(t, 2, len(batches))
	assert.Equal(t, 20, len(batches[1].Frames))
}

// TestPartitionFramesEmpty verifies that zero frames produce zero batches;
// an empty video is a success case, not an error.
func TestPartitionFramesEmpty(t *testing.T) {
	batches := commands.PartitionFrames(testVideo(), "path", nil, 20)
	assert.Equal(t, 0, len(batches))
}

// TestPartitionFramesClampsBatchSize verifies a non-positive batch size is
// clamped to one frame per batch rather than panicking or looping.
func TestPartitionFramesClampsBatchSize(t *testing.T) {
	batches := commands.PartitionFrames(testVideo(), "path", frameNames(3), 0)
	assert.Equal(t, 3, len(batches))
	for i, batch := range batches {
		assert.Equal(t, 1, len(batch.Frames))
		assert.Equal(t, i+1, batch.Sequence)
	}
}

// TestPartitionFramesFewerThanBatchSize verifies a short video yields one
// batch holding everything.
func TestPartitionFramesFewerThanBatchSize(t *testing.T) {
	batches := commands.PartitionFrames(testVideo(), "path", frameNames(7), 20)
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, 7, len(batches[0].Frames))
	assert.Equal(t, "sequence-1", batches[0].SequenceID)
}
