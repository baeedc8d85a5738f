// Copyright 2025 SprintLoop Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStartError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := &SessionStartError{
		Config: "launch-api",
		Reason: "adapter unreachable",
		Cause:  cause,
	}

	assert.Contains(t, err.Error(), "launch-api")
	assert.Contains(t, err.Error(), "adapter unreachable")
	assert.True(t, stderrors.Is(err, cause))

	// Without a config name the message still reads naturally.
	bare := &SessionStartError{Reason: "adapter rejected configuration"}
	assert.Equal(t, "failed to start session: adapter rejected configuration", bare.Error())
}

func TestInvalidStateError(t *testing.T) {
	err := &InvalidStateError{Op: "stepOver", State: "running"}
	assert.Equal(t, `stepOver not valid in state "running"`, err.Error())
}

func TestEvaluationError(t *testing.T) {
	err := &EvaluationError{Expression: "x+1", Message: "x is not defined"}
	assert.Contains(t, err.Error(), `"x+1"`)
	assert.Contains(t, err.Error(), "x is not defined")
}

func TestTransportError(t *testing.T) {
	cause := stderrors.New("broken pipe")
	err := &TransportError{Op: "stackTrace", Cause: cause}

	assert.Contains(t, err.Error(), "stackTrace")
	assert.True(t, stderrors.Is(err, cause))

	wrapped := fmt.Errorf("refreshing frames: %w", err)
	assert.True(t, IsTransport(wrapped))
	assert.False(t, IsTransport(stderrors.New("plain")))
}

func TestIsInvalidState(t *testing.T) {
	err := fmt.Errorf("command rejected: %w", &InvalidStateError{Op: "pause", State: "paused"})
	assert.True(t, IsInvalidState(err))
	assert.False(t, IsInvalidState(stderrors.New("other")))
}

func TestWrapHelpers(t *testing.T) {
	require.NoError(t, Wrap(nil, "context"))
	require.NoError(t, Wrapf(nil, "context %d", 1))

	base := stderrors.New("base")
	wrapped := Wrap(base, "outer")
	require.Error(t, wrapped)
	assert.Equal(t, "outer: base", wrapped.Error())
	assert.True(t, Is(wrapped, base))
	assert.Equal(t, base, Unwrap(wrapped))

	var nf *NotFoundError
	err := Wrapf(&NotFoundError{Resource: "breakpoint", ID: "42"}, "removing")
	require.True(t, As(err, &nf))
	assert.Equal(t, "breakpoint", nf.Resource)
}
