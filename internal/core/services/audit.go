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

// This file defines the run audit sink. Every pipeline run appends one
// outcome row to BigQuery, giving operators a queryable history of what was
// processed and how it ended. The keyed analysis records live in Firestore;
// BigQuery holds only this append-only log.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// RunAuditRecord is one appended row describing a completed pipeline run.
type RunAuditRecord struct {
	RunID         string    `bigquery:"run_id"`
	VideoID       string    `bigquery:"video_id"`
	Status        string    `bigquery:"status"`
	Message       string    `bigquery:"message"`
	BatchCount    int       `bigquery:"batch_count"`
	FailedBatches int       `bigquery:"failed_batches"`
	CompletedAt   time.Time `bigquery:"completed_at"`
}

// AuditService appends run outcomes to BigQuery and serves the recent-run
// listing for the review API.
type AuditService struct {
	Client      *bigquery.Client
	DatasetName string
	TableName   string
}

func NewAuditService(client *bigquery.Client, dataset string, table string) *AuditService {
	return &AuditService{Client: client, DatasetName: dataset, TableName: table}
}

// GetFQN returns the dot-separated fully qualified table name usable in
// standard SQL.
func (s *AuditService) GetFQN() string {
	fqn := s.Client.Dataset(s.DatasetName).Table(s.TableName).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Insert appends one run outcome via the streaming inserter.
func (s *AuditService) Insert(ctx context.Context, record *RunAuditRecord) error {
	inserter := s.Client.Dataset(s.DatasetName).Table(s.TableName).Inserter()
	if err := inserter.Put(ctx, record); err != nil {
		return fmt.Errorf("bigquery insert failed for run '%s': %w", record.RunID, err)
	}
	return nil
}

// ListRecent returns the most recent run outcomes, newest first.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*RunAuditRecord, error) {
	queryText := fmt.Sprintf(QryRecentRuns, s.GetFQN(), limit)
	q := s.Client.Query(queryText)
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*RunAuditRecord, 0, limit)
	for {
		record := &RunAuditRecord{}
		err := itr.Next(record)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
