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

// Package cor implements a small chain-of-responsibility engine on which the
// pipeline workflows are built. A workflow is a Chain of Commands sharing one
// Context; the chain pipes each command's primary output into the next
// command's primary input and stops at the first recorded error unless told
// to continue.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the context keys used for the implicit pipe between
// consecutive commands in a chain. A chain moves the value stored under
// CtxOut by one command to CtxIn before running the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution: a property bag for
// inter-command data, an error map keyed by command name, and a list of
// temporary files to remove when the run finishes. It also carries the
// standard Go context so commands observe cancellation and trace propagation.
type Context interface {
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a value and returns the Context for fluent chaining.
	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a command failure; the key is the command name.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	// AddTempFile registers a file for removal when Close is called.
	AddTempFile(file string)
	GetTempFiles() []string

	// Close removes tracked temp files. Defer it at the start of a run.
	Close()
}

// Executable is anything with a core unit of work.
type Executable interface {
	Execute(context Context)
}

// Command is one atomic, thread-safe step of a workflow. Commands report
// failure by calling AddError on the context rather than returning errors.
type Command interface {
	Executable

	GetName() string

	// GetInputParam and GetOutputParam name the context keys this command
	// reads its primary input from and writes its primary output to.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is a precondition check run by the chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands still run after an
	// earlier one records an error. Default is to stop.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
}
