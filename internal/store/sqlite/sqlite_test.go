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

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintloop/debugcore/pkg/dap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(Config{Path: filepath.Join(t.TempDir(), "breakpoints.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []dap.Breakpoint{
		{ID: 1, File: "a.go", Line: 10, Enabled: true, Condition: "x > 0"},
		{ID: 2, File: "a.go", Line: 20, Enabled: false, LogMessage: "hit {x}"},
		{ID: 5, File: "b.go", Line: 3, Column: 7, Enabled: true, HitCondition: ">= 3"},
	}
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by file then insertion position.
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
	assert.Equal(t, 5, got[2].ID)

	assert.Equal(t, "x > 0", got[0].Condition)
	assert.False(t, got[1].Enabled)
	assert.Equal(t, "hit {x}", got[1].LogMessage)
	assert.Equal(t, 7, got[2].Column)

	// Verification state is not persisted; everything reloads verified.
	for _, bp := range got {
		assert.True(t, bp.Verified)
	}
}

func TestStore_SaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []dap.Breakpoint{
		{ID: 1, File: "a.go", Line: 1, Enabled: true},
		{ID: 2, File: "a.go", Line: 2, Enabled: true},
	}))
	require.NoError(t, s.Save(ctx, []dap.Breakpoint{
		{ID: 3, File: "c.go", Line: 9, Enabled: true},
	}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, "c.go", got[0].File)
}

func TestStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bp.db")
	ctx := context.Background()

	s, err := New(Config{Path: path, WAL: true})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, []dap.Breakpoint{{ID: 7, File: "x.go", Line: 42, Enabled: true}}))
	require.NoError(t, s.Close())

	s2, err := New(Config{Path: path, WAL: true})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42, got[0].Line)
}
