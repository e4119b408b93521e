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
	"context"

	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// Observer receives pipeline progress callbacks. It decouples telemetry and
// audit sinks from the stage logic: commands report what happened and the
// injected observer decides where that goes. Implementations must be safe
// for concurrent calls; OnBatchComplete fires from describer workers.
type Observer interface {
	OnBatchComplete(ctx context.Context, video *model.Video, result model.DescriptionResult)
	OnRunComplete(ctx context.Context, result *model.RunResult)
	OnError(ctx context.Context, stage string, err error)
}

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) OnBatchComplete(context.Context, *model.Video, model.DescriptionResult) {}
func (NopObserver) OnRunComplete(context.Context, *model.RunResult)                        {}
func (NopObserver) OnError(context.Context, string, error)                                 {}
