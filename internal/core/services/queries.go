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

// This file centralizes the BigQuery SQL strings used by the services.
// Queries use fmt.Sprintf verbs as placeholders for values injected at
// runtime.
package services

const (
	// QryRecentRuns lists the newest pipeline run outcomes from the audit
	// table.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the run audit table.
	// - `%d`: The maximum number of rows to return.
	QryRecentRuns = "SELECT run_id, video_id, status, message, batch_count, failed_batches, completed_at FROM `%s` ORDER BY completed_at DESC LIMIT %d"
)
