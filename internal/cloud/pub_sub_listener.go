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

// A generic Pub/Sub message listener that hands each received message to an
// attached chain command. Messages are acked only when the chain finishes
// without errors; failed messages are redelivered per the subscription's
// retry policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener binds one subscription to one processing command. Listeners
// outlive individual requests, so they live with the other cloud components.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener builds a listener for the given subscription ID. The
// command may be nil at construction and attached later with SetCommand once
// the workflow chains exist.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (*PubSubListener, error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand attaches the processing command if none is attached yet. An
// already-attached command is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in a background goroutine. Canceling ctx stops the
// receive loop.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("starting pub/sub listener", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.Error("error executing chain", "command", name, "error", e)
				}
				// No ack and no nack: let the ack deadline lapse so the
				// subscription's retry policy drives redelivery.
			}

			span.End()
		})
		if err != nil {
			slog.Error("pub/sub receive terminated", "error", err)
		}
	}()
}
