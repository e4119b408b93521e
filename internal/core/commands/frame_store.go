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

// This file defines the frame store abstraction. Extracted frames are
// written to the frame bucket by the extractor and read back by the batch
// describers; the interfaces keep both stages testable without GCS.
package commands

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// FrameLoader reads the raw bytes of one frame image. path is the object
// prefix for the video, name the frame file name within it.
type FrameLoader interface {
	ReadFrame(ctx context.Context, path string, name string) ([]byte, error)
}

// FrameSink writes one frame image under the video's object prefix.
type FrameSink interface {
	WriteFrame(ctx context.Context, path string, name string, r io.Reader) error
}

// GCSFrameStore implements FrameLoader and FrameSink on a GCS bucket.
// Frames live at <path>/<name>, where path is the source object key, so a
// re-processed video overwrites its own frames in place.
type GCSFrameStore struct {
	client *storage.Client
	bucket string
}

func NewGCSFrameStore(client *storage.Client, bucket string) *GCSFrameStore {
	return &GCSFrameStore{client: client, bucket: bucket}
}

func (s *GCSFrameStore) object(path string, name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(fmt.Sprintf("%s/%s", path, name))
}

func (s *GCSFrameStore) WriteFrame(ctx context.Context, path string, name string, r io.Reader) error {
	writer := s.object(path, name).NewWriter(ctx)
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to upload frame %s/%s: %w", path, name, err)
	}
	return writer.Close()
}

func (s *GCSFrameStore) ReadFrame(ctx context.Context, path string, name string) ([]byte, error) {
	reader, err := s.object(path, name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s/%s: %w", path, name, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
