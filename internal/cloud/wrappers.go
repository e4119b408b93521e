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

// This file wraps the raw Generative AI client behind a small interface and
// a quota-aware decorator. Vertex AI enforces per-minute request quotas;
// the decorator throttles outgoing calls with a token-bucket limiter and
// retries transient failures so one busy run does not burn the project
// quota for its siblings.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const maxGenerateRetries = 3

// GenerativeModel is the capability the pipeline commands depend on: one
// content-in, response-out call. Tests substitute deterministic fakes;
// production uses QuotaAwareGenerativeAIModel.
type GenerativeModel interface {
	GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error)
	Name() string
}

// QuotaAwareGenerativeAIModel decorates one named Vertex AI model with a
// fixed generation config and a rate limiter.
type QuotaAwareGenerativeAIModel struct {
	GenerateConfig *genai.GenerateContentConfig
	ModelName      string
	ModelHandle    *genai.Models
	RateLimit      *rate.Limiter
}

// NewQuotaAwareModel wraps the given model identity. requestsPerSecond sets
// both the sustained rate and the burst size of the limiter.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerateConfig: config,
		ModelName:      name,
		ModelHandle:    handle,
		RateLimit:      rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// Name returns the underlying Vertex AI model identifier.
func (q *QuotaAwareGenerativeAIModel) Name() string {
	return q.ModelName
}

// GenerateContent blocks until the limiter admits the call, then invokes the
// model, retrying up to maxGenerateRetries times with a linear backoff.
// Context cancellation aborts both the wait and the retries.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxGenerateRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerateConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 5 * time.Second):
		}
	}
	return nil, fmt.Errorf("generation failed after %d retries: %w", maxGenerateRetries, lastErr)
}
