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

// Package cor_test contains unit tests for the chain-of-responsibility
// engine: input/output piping between commands, error short-circuiting, and
// the skip behavior for commands whose input is missing.
package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/zeebo/assert"
)

// appendCommand appends its suffix to the string input and emits the result.
type appendCommand struct {
	cor.BaseCommand
	suffix string
}

func newAppendCommand(name string, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(chainCtx cor.Context) {
	in := chainCtx.Get(c.GetInputParam()).(string)
	chainCtx.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand records an error. It forwards its input so the chain's
// continue-on-failure mode still has something to pipe.
type failingCommand struct {
	cor.BaseCommand
}

func newFailingCommand(name string) *failingCommand {
	return &failingCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *failingCommand) Execute(chainCtx cor.Context) {
	chainCtx.AddError(c.GetName(), errors.New("boom"))
	chainCtx.Add(c.GetOutputParam(), chainCtx.Get(c.GetInputParam()))
}

func newContext(input interface{}) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	if input != nil {
		chainCtx.Add(cor.CtxIn, input)
	}
	return chainCtx
}

// TestChainPipesOutputToInput verifies that each command's output becomes
// the next command's input and the final output lands on CtxIn.
func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe-chain")
	chain.AddCommand(newAppendCommand("first", "-a"))
	chain.AddCommand(newAppendCommand("second", "-b"))

	chainCtx := newContext("start")
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "start-a-b", chainCtx.Get(cor.CtxIn))
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

// TestChainStopsAtFirstError verifies that commands after a recorded error
// do not run when ContinueOnFailure is unset.
func TestChainStopsAtFirstError(t *testing.T) {
	chain := cor.NewBaseChain("error-chain")
	chain.AddCommand(newFailingCommand("fails"))
	chain.AddCommand(newAppendCommand("never-runs", "-x"))

	chainCtx := newContext("start")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.NotNil(t, chainCtx.GetErrors()["fails"])
	// The second command never executed, so nothing was appended.
	assert.Equal(t, "start", chainCtx.Get(cor.CtxIn))
}

// TestChainContinueOnFailure verifies that a chain configured to continue
// keeps executing the remaining commands after an error.
func TestChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("continue-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newFailingCommand("fails"))
	chain.AddCommand(newAppendCommand("still-runs", "-x"))

	chainCtx := newContext("start")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, "start-x", chainCtx.Get(cor.CtxIn))
}

// TestChainSkipsCommandWithoutInput verifies the filter pattern: a command
// that produces no output causes every later command to be skipped without
// recording an error.
func TestChainSkipsCommandWithoutInput(t *testing.T) {
	chain := cor.NewBaseChain("skip-chain")
	chain.AddCommand(newAppendCommand("needs-input", "-a"))

	chainCtx := newContext(nil)
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}
