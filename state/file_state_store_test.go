package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jumppad-labs/pluginmeta/state"
	"github.com/stretchr/testify/require"
)

func TestFileStateStoreCreatesStateDirectoryIfNotExists(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "test-state")
	store := state.NewFileStateStore(stateDir)

	err := store.Save(state.New())
	require.NoError(t, err)

	require.DirExists(t, stateDir)
	require.FileExists(t, store.Path())
}

func TestFileStateStoreSavesAndLoadsStateCorrectly(t *testing.T) {
	store := state.NewFileStateStore(filepath.Join(t.TempDir(), "save-load-test"))

	s := state.New()
	s.Set("kystdatahuset_ais", state.PluginState{Enabled: false, Version: "0.1", Checksum: "abc"})

	err := store.Save(s)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	ps, ok := loaded.Get("kystdatahuset_ais")
	require.True(t, ok)
	require.False(t, ps.Enabled)
	require.Equal(t, "0.1", ps.Version)
	require.Equal(t, "abc", ps.Checksum)
}

func TestFileStateStoreReturnsNilWhenNoStateExists(t *testing.T) {
	store := state.NewFileStateStore(filepath.Join(t.TempDir(), "no-state-test"))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
	require.False(t, store.Exists())
}

func TestFileStateStoreReturnsErrorForCorruptState(t *testing.T) {
	stateDir := t.TempDir()
	store := state.NewFileStateStore(stateDir)

	err := os.WriteFile(store.Path(), []byte("{not json"), 0644)
	require.NoError(t, err)

	_, err = store.Load()
	require.Error(t, err)
}

func TestFileStateStoreClearRemovesState(t *testing.T) {
	store := state.NewFileStateStore(t.TempDir())

	require.NoError(t, store.Save(state.New()))
	require.True(t, store.Exists())

	require.NoError(t, store.Clear())
	require.False(t, store.Exists())

	// clearing twice is not an error
	require.NoError(t, store.Clear())
}

func TestStateGetOnNilState(t *testing.T) {
	var s *state.State

	_, ok := s.Get("anything")
	require.False(t, ok)
}
