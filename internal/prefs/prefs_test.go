// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeCases(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(KeyToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(KeyToken, "abc"))
			require.NoError(t, store.Set(KeyUsername, "alice"))
			require.NoError(t, store.Set(KeyToken, "def"))

			v, err := store.Get(KeyToken)
			require.NoError(t, err)
			assert.Equal(t, "def", v)

			require.NoError(t, store.Delete(KeyToken, KeyUsername, "never-set"))
			_, err = store.Get(KeyUsername)
			assert.ErrorIs(t, err, ErrNotFound)

			assert.Equal(t, "gemma3:1b", GetOr(store, KeySelectedModel, "gemma3:1b"))
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(KeySelectedModel, "llama3"))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	v, err := second.Get(KeySelectedModel)
	require.NoError(t, err)
	assert.Equal(t, "llama3", v)
}

func TestStore_UnicodeValues(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(KeyUsername, "李雷"))
			assert.Equal(t, "李雷", GetOr(store, KeyUsername, ""))
		})
	}
}
