package pluginmeta

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jumppad-labs/pluginmeta/logger"
	"github.com/jumppad-labs/pluginmeta/state"
	"github.com/jumppad-labs/pluginmeta/state/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T, o *RegistryOptions) *PluginRegistry {
	r, err := NewPluginRegistry(o, logger.NewTestLogger(t))
	require.NoError(t, err)

	return r
}

func testMetadata(id, name string) *Metadata {
	return &Metadata{
		ID:                 id,
		Name:               name,
		QgisMinimumVersion: "3.0",
		Description:        "Test plugin",
		Version:            "1.0",
		Author:             "Test",
		Email:              "test@example.com",
	}
}

func TestRegisterSetsAvailableStatusAndMenu(t *testing.T) {
	r := setupRegistry(t, &RegistryOptions{HostVersion: "3.34"})

	m := testMetadata("kystdatahuset_ais", "Kystdatahuset AIS fetcher")
	m.Category = "Web"

	p, err := r.Register(m)
	require.NoError(t, err)

	require.Equal(t, StatusAvailable, p.Status)
	require.Equal(t, MenuEntry{PluginID: "kystdatahuset_ais", Menu: "Web", Title: "Kystdatahuset AIS fetcher"}, p.Menu)
}

func TestRegisterDerivesIDFromName(t *testing.T) {
	r := setupRegistry(t, nil)

	p, err := r.Register(testMetadata("", "AIS Track Styles"))
	require.NoError(t, err)
	require.Equal(t, "ais_track_styles", p.ID())
}

func TestRegisterRejectsInvalidMetadata(t *testing.T) {
	r := setupRegistry(t, nil)

	m := testMetadata("bad", "Bad")
	m.Email = ""

	_, err := r.Register(m)
	require.Error(t, err)
	require.Empty(t, r.Plugins())
}

func TestRegisterRejectsDuplicateIDs(t *testing.T) {
	r := setupRegistry(t, nil)

	_, err := r.Register(testMetadata("a", "A"))
	require.NoError(t, err)

	_, err = r.Register(testMetadata("a", "A again"))
	require.Error(t, err)
}

func TestRegisterDoesNotShareMetadata(t *testing.T) {
	r := setupRegistry(t, nil)

	m := testMetadata("a", "A")
	_, err := r.Register(m)
	require.NoError(t, err)

	m.Name = "changed"

	p, _ := r.Get("a")
	require.Equal(t, "A", p.Metadata.Name)
}

func TestStatusRules(t *testing.T) {
	tt := []struct {
		name   string
		opts   RegistryOptions
		modify func(m *Metadata)
		want   Status
	}{
		{"available", RegistryOptions{HostVersion: "3.34"}, func(m *Metadata) {}, StatusAvailable},
		{"disabled by host", RegistryOptions{Enabled: map[string]bool{"p": false}}, func(m *Metadata) {}, StatusDisabled},
		{"incompatible", RegistryOptions{HostVersion: "3.34"}, func(m *Metadata) { m.QgisMinimumVersion = "3.36" }, StatusIncompatible},
		{"old major", RegistryOptions{HostVersion: "3.34"}, func(m *Metadata) { m.QgisMinimumVersion = "2.18" }, StatusIncompatible},
		{"deprecated", RegistryOptions{}, func(m *Metadata) { m.Deprecated = true }, StatusDeprecated},
		{"deprecated allowed", RegistryOptions{AllowDeprecated: true}, func(m *Metadata) { m.Deprecated = true }, StatusAvailable},
		{"experimental", RegistryOptions{}, func(m *Metadata) { m.Experimental = true }, StatusExperimental},
		{"experimental allowed", RegistryOptions{AllowExperimental: true}, func(m *Metadata) { m.Experimental = true }, StatusAvailable},
		{"disabled wins over incompatible", RegistryOptions{HostVersion: "3.34", Enabled: map[string]bool{"p": false}}, func(m *Metadata) { m.QgisMinimumVersion = "3.36" }, StatusDisabled},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts
			r := setupRegistry(t, &opts)

			m := testMetadata("p", "P")
			tc.modify(m)

			p, err := r.Register(m)
			require.NoError(t, err)
			require.Equal(t, tc.want, p.Status)

			if tc.want != StatusAvailable {
				require.NotEmpty(t, p.Reason)
				require.False(t, p.Loadable())
			}
		})
	}
}

func TestDiscoverAndLoadSkipsBrokenPlugins(t *testing.T) {
	l := logger.NewTestLogger(t)
	r, err := NewPluginRegistry(&RegistryOptions{HostVersion: "3.34", AllowExperimental: true}, l)
	require.NoError(t, err)

	err = r.DiscoverAndLoad([]string{"test_fixtures/plugins"})
	require.NoError(t, err)

	plugins := r.Plugins()
	require.Len(t, plugins, 2)
	require.Equal(t, "depends_on_ais", plugins[0].ID())
	require.Equal(t, "kystdatahuset_ais", plugins[1].ID())
	require.Len(t, l.Messages("ERROR"), 1)
}

func TestDiscoverAndLoadFailsWhenEveryPluginIsBroken(t *testing.T) {
	dir := t.TempDir()
	createPlugin(t, dir, "ok", "")

	r := setupRegistry(t, nil)

	err := r.DiscoverAndLoad([]string{dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "all plugin loads failed")
}

func TestByCategorySearchAndMenuEntries(t *testing.T) {
	r := setupRegistry(t, nil)

	web := testMetadata("web", "Zeta web")
	web.Category = "Web"
	web.Tags = []string{"ais"}

	web2 := testMetadata("web2", "Alpha web")
	web2.Category = "web"

	other := testMetadata("other", "Other")
	other.Category = "Analysis"

	hidden := testMetadata("hidden", "Hidden")
	hidden.Experimental = true

	for _, m := range []*Metadata{web, web2, other, hidden} {
		_, err := r.Register(m)
		require.NoError(t, err)
	}

	require.Len(t, r.ByCategory("WEB"), 2)
	require.Len(t, r.Search("AIS"), 1)
	require.Len(t, r.Search("web"), 2)

	entries := r.MenuEntries()
	require.Len(t, entries, 3)
	require.Equal(t, "Plugins", entries[0].Menu)
	require.Equal(t, "Alpha web", entries[1].Title)
	require.Equal(t, "Zeta web", entries[2].Title)
}

func TestSetEnabledAndUnregister(t *testing.T) {
	r := setupRegistry(t, &RegistryOptions{Enabled: map[string]bool{"a": true}})

	_, err := r.Register(testMetadata("a", "A"))
	require.NoError(t, err)

	require.NoError(t, r.SetEnabled("a", false))
	p, _ := r.Get("a")
	require.Equal(t, StatusDisabled, p.Status)

	require.Error(t, r.SetEnabled("missing", true))

	require.NoError(t, r.Unregister("a"))
	_, ok := r.Get("a")
	require.False(t, ok)
	require.Error(t, r.Unregister("a"))
}

func TestRegistryAppliesSavedStateAndDetectsChanges(t *testing.T) {
	m := testMetadata("a", "A")

	saved := state.New()
	saved.Set("a", state.PluginState{Enabled: false, Version: "0.9", Checksum: "old"})
	saved.Set("b", state.PluginState{Enabled: true, Version: "1.0", Checksum: Checksum(testMetadata("b", "B"))})

	store := mocks.NewMockStateStore(t)
	store.On("Load").Return(saved, nil)
	store.On("Save", mock.AnythingOfType("*state.State")).Return(nil)

	r := setupRegistry(t, &RegistryOptions{StateStore: store})

	a, err := r.Register(m)
	require.NoError(t, err)
	require.Equal(t, StatusDisabled, a.Status)
	require.True(t, a.Changed)

	b, err := r.Register(testMetadata("b", "B"))
	require.NoError(t, err)
	require.Equal(t, StatusAvailable, b.Status)
	require.False(t, b.Changed)

	require.NoError(t, r.SaveState())

	s := store.Calls[1].Arguments.Get(0).(*state.State)
	ps, ok := s.Get("a")
	require.True(t, ok)
	require.Equal(t, "1.0", ps.Version)
	require.Equal(t, Checksum(m), ps.Checksum)
}

func TestNewRegistryReturnsStateErrors(t *testing.T) {
	store := mocks.NewMockStateStore(t)
	store.On("Load").Return(nil, fmt.Errorf("corrupt"))

	_, err := NewPluginRegistry(&RegistryOptions{StateStore: store}, nil)
	require.Error(t, err)
}

func TestRegistryIsSafeForConcurrentUse(t *testing.T) {
	r := setupRegistry(t, nil)

	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			id := fmt.Sprintf("p%d", i)
			if _, err := r.Register(testMetadata(id, id)); err != nil {
				t.Error(err)
			}

			r.Plugins()
			r.MenuEntries()
		}(i)
	}

	wg.Wait()
	require.Len(t, r.Plugins(), 20)
}
