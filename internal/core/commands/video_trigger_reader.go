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

// This file defines the entry command of the narrative workflow. It parses
// the GCS notification delivered through Pub/Sub, filters out events that
// must not start a run, and derives the run's Video identity from the
// object key.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// VideoTriggerReader parses a GCS Pub/Sub notification into the simplified
// GCSObject plus the Video identity used by every later stage.
//
// Not every notification starts a run: zero-byte objects are folder
// placeholders from the console, and non-finalize events carry no new
// content. Filtered messages leave the chain without output, so downstream
// commands never fire and the message is acked as handled.
type VideoTriggerReader struct {
	cor.BaseCommand
}

func NewVideoTriggerReader(name string) *VideoTriggerReader {
	return &VideoTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *VideoTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	if out.Kind != "storage#object" || out.Name == "" {
		slog.Info("skipping non-object notification", "kind", out.Kind)
		return
	}
	if out.Size == "0" {
		slog.Info("skipping zero-byte placeholder object", "object", out.Name)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	video := &model.Video{
		ID:         model.NewVideoID(out.Name),
		SourceURI:  msg.URI(),
		URL:        msg.URL(),
		IngestedAt: time.Now().UTC(),
	}

	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(GetVideoParameterName(), video)
	context.Add(c.GetOutputParam(), msg)
}
