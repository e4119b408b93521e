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

// Package test provides shared helpers and mock data for the test suite:
// a cached test configuration and canned GCS notification payloads that
// stand in for real Pub/Sub messages.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
)

// StateManager caches the loaded test configuration so the TOML files are
// read once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestVideoMessageText returns a GCS notification payload for a finalized
// video upload, as delivered through the upload subscription.
func GetTestVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "narrative_video_uploads/trailers/test-trailer-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/narrative_video_uploads/o/trailers%2Ftest-trailer-001.mp4",
  "name": "trailers/test-trailer-001.mp4",
  "bucket": "narrative_video_uploads",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/narrative_video_uploads/o/trailers%2Ftest-trailer-001.mp4?generation=1728615848664286&alt=media",
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// GetTestFolderMessageText returns the zero-byte placeholder notification a
// console folder creation produces. The trigger reader must ignore it.
func GetTestFolderMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "narrative_video_uploads/trailers//1728615848664000",
  "name": "trailers/",
  "bucket": "narrative_video_uploads",
  "generation": "1728615848664000",
  "metageneration": "1",
  "contentType": "text/plain",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "0"
	}`
}

// SetupOS points the configuration loader at the test configuration files
// (configs/.env.toml plus the .env.test.toml override).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
