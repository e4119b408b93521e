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

package commands

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// RunReporter is the terminal command of the narrative workflow. It folds
// the batch results and the summary outcome into the run's RunResult and
// hands it to the observer.
type RunReporter struct {
	cor.BaseCommand
	observer Observer
}

func NewRunReporter(name string, observer Observer) *RunReporter {
	return &RunReporter{BaseCommand: *cor.NewBaseCommand(name), observer: observer}
}

func (c *RunReporter) Execute(context cor.Context) {
	summary := context.Get(c.GetInputParam()).(model.DescriptionResult)
	video := context.Get(GetVideoParameterName()).(*model.Video)
	batches := context.Get(GetBatchResultsParameterName()).([]model.DescriptionResult)

	status := model.RunSucceeded
	message := "narrative complete"
	if !summary.Ok {
		status = model.RunDegraded
		message = "summary degraded: " + summary.Failure.String()
	}
	for _, batch := range batches {
		if !batch.Ok {
			status = model.RunDegraded
			message = "one or more batches degraded"
			break
		}
	}

	result := &model.RunResult{
		RunID:      uuid.NewString(),
		VideoID:    video.ID,
		Status:     status,
		Message:    message,
		Summary:    summary.Text,
		BatchCount: len(batches),
		Batches:    batches,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("pipeline run complete",
		"run_id", result.RunID,
		"video", result.VideoID,
		"status", result.Status.String(),
		"batches", result.BatchCount)
	c.observer.OnRunComplete(context.GetContext(), result)
	context.Add(c.GetOutputParam(), result)
}
