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

// Package commands provides the concrete chain commands that make up the
// video narrative pipeline: trigger parsing, video download, frame
// extraction, batch description, and summary aggregation. This file holds
// the well-known context keys the commands share.
package commands

// GetVideoParameterName returns the context key holding the *model.Video
// for the current run.
func GetVideoParameterName() string {
	return "__VIDEO__"
}

// GetBatchResultsParameterName returns the context key holding the
// collected []model.DescriptionResult.
func GetBatchResultsParameterName() string {
	return "__BATCH_RESULTS__"
}

// GetSummaryParameterName returns the context key holding the aggregate
// summary text.
func GetSummaryParameterName() string {
	return "__SUMMARY__"
}
