package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/events"
)

func writeNote(t *testing.T, vault, rel, content string) {
	t.Helper()
	abs := filepath.Join(vault, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func exists(vault, rel string) bool {
	_, err := os.Stat(filepath.Join(vault, filepath.FromSlash(rel)))
	return err == nil
}

func newTestState(t *testing.T, settings string) (*State, string) {
	t.Helper()

	home := t.TempDir()
	vault := t.TempDir()

	if settings == "" {
		settings = "workspaces:\n  default:\n    vaultdir: " + vault + "\n"
	}
	configPath := config.GetConfigPath(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0o644))

	s, err := NewState(Options{Home: home})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, vault
}

func TestNewStateFallsBackToDefaultsOnMalformedSettings(t *testing.T) {
	s, _ := newTestState(t, "workspaces: [broken\n")

	assert.Equal(t, "default", s.WorkspaceName)
	assert.Equal(t, "Templates", s.Workspace.TemplateFolder)
	assert.ErrorIs(t, s.RequireVault(), ErrNoVault)
}

func TestNewStateRejectsUnknownWorkspace(t *testing.T) {
	home := t.TempDir()
	_, err := NewState(Options{Home: home, Workspace: "missing"})
	assert.Error(t, err)
}

func TestNewStateRejectsInvalidLogLevel(t *testing.T) {
	home := t.TempDir()
	_, err := NewState(Options{Home: home, LogLevel: "loud"})
	assert.Error(t, err)
}

func TestReloadTemplates(t *testing.T) {
	s, vault := newTestState(t, "")
	writeNote(t, vault, "Templates/Review.md", "---\ntype: Review\nnameFormat: <<title>>\n---\n")
	writeNote(t, vault, "Templates/Loose.md", "---\ntitle: untyped\n---\n")
	writeNote(t, vault, "Notes/a.md", "---\ntype: Note\nnameFormat: ignored\n---\n")

	n, err := s.ReloadTemplates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.Catalog.Templates(), 2)
}

func TestRegisteredHandlers(t *testing.T) {
	s, vault := newTestState(t, "")
	writeNote(t, vault, "Templates/Review.md", "---\ntype: Review\nnameFormat: <<title>>\n---\n")

	bus := events.NewBus(0)
	s.Register(bus)
	ctx := context.Background()

	bus.Dispatch(ctx, events.Event{Kind: events.LayoutReady})
	_, ok := s.Catalog.Lookup("Review")
	require.True(t, ok)

	writeNote(t, vault, "Reviews/draft.md", "---\ntype: Review\ntitle: Dune\n---\n")
	bus.Dispatch(ctx, events.Event{Kind: events.NoteChanged, Path: "Reviews/draft.md"})
	assert.True(t, exists(vault, "Reviews/Dune.md"))
	assert.False(t, exists(vault, "Reviews/draft.md"))

	writeNote(t, vault, "Templates/Idea.md", "---\ntype: Idea\nnameFormat: <<topic>>\n---\n")
	bus.Dispatch(ctx, events.Event{Kind: events.NoteChanged, Path: "Templates/Idea.md"})
	_, ok = s.Catalog.Lookup("Idea")
	assert.True(t, ok, "template change reloads the catalog")

	require.NoError(t, os.Remove(filepath.Join(vault, "Templates", "Idea.md")))
	bus.Dispatch(ctx, events.Event{Kind: events.NoteRemoved, Path: "Templates/Idea.md"})
	_, ok = s.Catalog.Lookup("Idea")
	assert.False(t, ok, "template removal reloads the catalog")
}

func TestTemplateChangesIgnoredWithoutAutoReload(t *testing.T) {
	home := t.TempDir()
	vault := t.TempDir()
	settings := "workspaces:\n  default:\n    vaultdir: " + vault + "\n    watch:\n      auto_reload: false\n"
	configPath := config.GetConfigPath(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0o644))

	s, err := NewState(Options{Home: home})
	require.NoError(t, err)

	bus := events.NewBus(0)
	s.Register(bus)

	writeNote(t, vault, "Templates/Idea.md", "---\ntype: Idea\nnameFormat: <<topic>>\n---\n")
	bus.Dispatch(context.Background(), events.Event{Kind: events.NoteChanged, Path: "Templates/Idea.md"})

	_, ok := s.Catalog.Lookup("Idea")
	assert.False(t, ok)
	assert.True(t, exists(vault, "Templates/Idea.md"))
}

func TestWatchRenamesChangedNotes(t *testing.T) {
	s, vault := newTestState(t, "")
	s.Workspace.Watch.DebounceMillis = 20
	writeNote(t, vault, "Templates/Review.md", "---\ntype: Review\nnameFormat: <<title>>\n---\n")
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Reviews"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := s.Catalog.Lookup("Review")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	writeNote(t, vault, "Reviews/draft.md", "---\ntype: Review\ntitle: Dune\n---\n")

	require.Eventually(t, func() bool {
		return exists(vault, "Reviews/Dune.md")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRequiresVault(t *testing.T) {
	s, err := NewState(Options{Home: t.TempDir()})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Watch(context.Background()), ErrNoVault)
}
