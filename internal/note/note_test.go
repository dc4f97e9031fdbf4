package note

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/handler"
	"github.com/Paintersrp/metamatter/internal/pathutil"
	"github.com/Paintersrp/metamatter/internal/templater"
)

func fixedTemplater() *templater.Templater {
	return templater.NewTemplater(templater.WithClock(func() time.Time {
		return time.Date(2024, time.March, 15, 14, 7, 0, 0, time.Local)
	}))
}

func newVault(t *testing.T, files map[string]string) (string, *handler.FileHandler) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	vault := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(vault, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	viper.Set("vaultdir", vault)
	return vault, handler.NewFileHandler(vault, nil)
}

const reviewTemplate = "---\ntype: Review\nnameFormat: <<title>>\ndestFolder: Reviews/2024\naddCreated: true\ntitle:\n---\n## Notes\n"

func TestCreateFromTemplate(t *testing.T) {
	vault, store := newVault(t, map[string]string{"Templates/Review.md": reviewTemplate})
	creator := NewCreator(store, fixedTemplater())

	tmpl := catalog.Template{Path: "Templates/Review.md", Type: "Review", DestFolder: "Reviews/2024"}
	abs, err := creator.CreateFromTemplate(context.Background(), tmpl)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(vault, "Reviews", "2024", "240315@1407.md"), abs)

	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "---\ntype: Review\ntitle: \"\"\ncreated: 240315@1407\n---\n## Notes\n", string(data))

	_, err = creator.CreateFromTemplate(context.Background(), tmpl)
	assert.ErrorIs(t, err, fs.ErrExist)
}

func TestCreateFromTemplateDefaultsToVaultRoot(t *testing.T) {
	vault, store := newVault(t, map[string]string{"Templates/Idea.md": "---\ntype: Idea\n---\n"})
	creator := NewCreator(store, fixedTemplater())

	abs, err := creator.CreateFromTemplate(context.Background(), catalog.Template{Path: "Templates/Idea.md"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(vault, "240315@1407.md"), abs)
}

func TestCreateFromTemplateRejectsEscapingDestination(t *testing.T) {
	_, store := newVault(t, map[string]string{"Templates/Bad.md": "---\ntype: Bad\n---\n"})
	creator := NewCreator(store, fixedTemplater())

	_, err := creator.CreateFromTemplate(context.Background(), catalog.Template{Path: "Templates/Bad.md", DestFolder: "../outside"})
	assert.ErrorIs(t, err, pathutil.ErrOutsideVault)
}

func TestCreateFromTemplateMalformed(t *testing.T) {
	vault, store := newVault(t, map[string]string{"Templates/Broken.md": "no frontmatter here\n"})
	creator := NewCreator(store, fixedTemplater())

	_, err := creator.CreateFromTemplate(context.Background(), catalog.Template{Path: "Templates/Broken.md", DestFolder: "Out"})
	assert.ErrorIs(t, err, templater.ErrMalformedTemplate)

	_, statErr := os.Stat(filepath.Join(vault, "Out"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestCreateFromTemplateRunsPostCreateHooks(t *testing.T) {
	vault, store := newVault(t, map[string]string{"Templates/Idea.md": "---\ntype: Idea\n---\n"})
	viper.Set("workspace_hooks", config.HookConfig{
		PostCreate: []config.CommandTemplate{{Exec: "touch", Args: []string{"{file}.hooked"}}},
	})
	creator := NewCreator(store, fixedTemplater())

	abs, err := creator.CreateFromTemplate(context.Background(), catalog.Template{Path: "Templates/Idea.md"})
	require.NoError(t, err)

	_, err = os.Stat(abs + ".hooked")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(vault, "240315@1407.md"), abs)
}

func TestInsertIntoNote(t *testing.T) {
	vault, store := newVault(t, map[string]string{
		"Templates/Task.md": "---\ntype: Task\nnameFormat: x\nstatus:\n---\n- [ ] todo\n",
		"Daily.md":          "first\nsecond\n",
	})
	inserter := NewInserter(store, fixedTemplater())
	tmpl := catalog.Template{Path: "Templates/Task.md"}

	require.NoError(t, inserter.InsertIntoNote(context.Background(), tmpl, "Daily.md", 2))

	data, err := os.ReadFile(filepath.Join(vault, "Daily.md"))
	require.NoError(t, err)
	assert.Equal(t, "first\n---\ntype: Task\nstatus: \"\"\n---\n- [ ] todo\nsecond\n", string(data))
}

func TestInsertAt(t *testing.T) {
	cases := []struct {
		name    string
		content string
		text    string
		line    int
		want    string
	}{
		{"append by default", "a\nb\n", "x", 0, "a\nb\nx\n"},
		{"append past end", "a\nb", "x\n", 9, "a\nb\nx\n"},
		{"first line", "a\nb\n", "x\n", 1, "x\na\nb\n"},
		{"middle", "a\nb\nc\n", "x\ny\n", 3, "a\nb\nx\ny\nc\n"},
		{"empty note", "", "x\n", 1, "x\n"},
		{"last line without newline", "a\nb", "x", 2, "a\nx\nb"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InsertAt(tc.content, tc.text, tc.line))
		})
	}
}

func TestEditorLaunchWithTemplateWrapsDefaultCommand(t *testing.T) {
	vault, _ := newVault(t, nil)
	notePath := filepath.Join(vault, "note.md")

	viper.Set("editor", "nvim")
	viper.Set("nvimargs", "--headless")
	viper.Set("editor_template", config.CommandTemplate{
		Exec: "kitty",
		Args: []string{"@", "launch", "--type=tab", "{cmd}", "{args}"},
	})

	launch, err := EditorLaunchForPath(context.Background(), notePath)
	require.NoError(t, err)

	assert.Equal(t, []string{"kitty", "@", "launch", "--type=tab", "nvim", "--headless", notePath}, launch.Cmd.Args)
	assert.True(t, launch.Wait, "template inherits wait from the base editor")
}

func TestEditorLaunchWithCustomTemplate(t *testing.T) {
	vault, _ := newVault(t, nil)
	notePath := filepath.Join(vault, "note.md")

	viper.Set("editor", "custom")
	wait := false
	viper.Set("editor_template", config.CommandTemplate{
		Exec: "zed",
		Args: []string{"--reuse-window", "{relative}", "{file}"},
		Wait: &wait,
	})

	launch, err := EditorLaunchForPath(context.Background(), notePath)
	require.NoError(t, err)

	assert.Equal(t, []string{"zed", "--reuse-window", "note.md", notePath}, launch.Cmd.Args)
	assert.False(t, launch.Wait)
}

func TestEditorLaunchRequiresEditor(t *testing.T) {
	vault, _ := newVault(t, nil)

	_, err := EditorLaunchForPath(context.Background(), filepath.Join(vault, "note.md"))
	assert.ErrorIs(t, err, ErrNoEditor)

	viper.Set("editor", "custom")
	_, err = EditorLaunchForPath(context.Background(), filepath.Join(vault, "note.md"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "editor_template"))
}

func TestEditorLaunchForVim(t *testing.T) {
	vault, _ := newVault(t, nil)
	viper.Set("editor", "vim")

	launch, err := EditorLaunchForPath(context.Background(), filepath.Join(vault, "n.md"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vim", filepath.Join(vault, "n.md")}, launch.Cmd.Args)
	assert.True(t, launch.Wait)
}

func TestRunHooksRejectsUnknownPhase(t *testing.T) {
	newVault(t, nil)
	assert.Error(t, RunHooks(context.Background(), Phase("later"), "x.md"))
}
