package note

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// ErrNoEditor is returned when no editor is configured for the workspace.
var ErrNoEditor = errors.New("editor not configured")

// EditorLaunch is a prepared editor command. Wait reports whether the caller
// should block until the editor exits.
type EditorLaunch struct {
	Cmd  *exec.Cmd
	Wait bool
}

type editorCommand struct {
	command string
	args    []string
	wait    bool
	silence bool
}

// EditorLaunchForPath prepares the configured editor for path without starting it.
// An editor_template wraps the base editor command when one is set.
func EditorLaunchForPath(ctx context.Context, path string) (*EditorLaunch, error) {
	editor := strings.TrimSpace(viper.GetString("editor"))
	base, baseErr := buildEditorCommand(path, editor)

	var template config.CommandTemplate
	if err := viper.UnmarshalKey("editor_template", &template); err == nil && strings.TrimSpace(template.Exec) != "" {
		p := newPlaceholders(path)
		p.Editor = editor
		p.BaseCmd = editor
		if base != nil {
			p.BaseCmd = base.command
		}
		return applyEditorTemplate(template, p, base).launch(ctx), nil
	}

	if baseErr != nil {
		return nil, baseErr
	}
	return base.launch(ctx), nil
}

func (c *editorCommand) launch(ctx context.Context) *EditorLaunch {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	if c.silence {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}
	return &EditorLaunch{Cmd: cmd, Wait: c.wait}
}

func buildEditorCommand(path string, editor string) (*editorCommand, error) {
	switch editor {
	case "nvim":
		args := strings.Fields(viper.GetString("nvimargs"))
		return &editorCommand{command: "nvim", args: append(args, path), wait: true}, nil
	case "vim", "nano":
		return &editorCommand{command: editor, args: []string{path}, wait: true}, nil
	case "vscode", "code":
		return detached("code", path)
	case "obsidian":
		return buildObsidianCommand(path)
	case "custom":
		return nil, fmt.Errorf("custom editor requires an editor_template command")
	case "":
		return nil, ErrNoEditor
	default:
		return nil, fmt.Errorf("unsupported editor: %s", editor)
	}
}

// detached opens target with a desktop application and returns immediately.
func detached(app string, target string) (*editorCommand, error) {
	switch runtime.GOOS {
	case "darwin":
		if app == "code" {
			return &editorCommand{command: "open", args: []string{"-n", "-b", "com.microsoft.VSCode", "--args", target}, silence: true}, nil
		}
		return &editorCommand{command: "open", args: []string{target}, silence: true}, nil
	case "linux":
		return &editorCommand{command: app, args: []string{target}, silence: true}, nil
	case "windows":
		if app == "xdg-open" {
			return &editorCommand{command: "cmd", args: []string{"/c", "start", target}, silence: true}, nil
		}
		return &editorCommand{command: "cmd", args: []string{"/c", app, target}, silence: true}, nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func buildObsidianCommand(path string) (*editorCommand, error) {
	vaultDir := viper.GetString("vaultdir")
	relativePath, err := pathutil.VaultRelative(vaultDir, path)
	if err != nil {
		return nil, fmt.Errorf("unable to determine relative path for obsidian: %w", err)
	}

	vaultName := filepath.Base(pathutil.NormalizePath(vaultDir))
	uri := fmt.Sprintf("obsidian://open?vault=%s&file=%s", vaultName, relativePath)
	return detached("xdg-open", uri)
}

func applyEditorTemplate(template config.CommandTemplate, p placeholders, base *editorCommand) *editorCommand {
	wrapped := &editorCommand{
		command: strings.TrimSpace(p.expand(template.Exec)),
		wait:    true,
	}
	if base != nil {
		wrapped.wait = base.wait
		wrapped.silence = base.silence
	}
	if template.Wait != nil {
		wrapped.wait = *template.Wait
	}
	if template.Silence != nil {
		wrapped.silence = *template.Silence
	}

	var baseArgs []string
	if base != nil {
		baseArgs = base.args
	}
	for _, token := range template.Args {
		if strings.TrimSpace(token) == "{args}" {
			wrapped.args = append(wrapped.args, baseArgs...)
			continue
		}
		expanded := p.expand(token)
		expanded = strings.ReplaceAll(expanded, "{args}", strings.Join(baseArgs, " "))
		wrapped.args = append(wrapped.args, expanded)
	}

	return wrapped
}

// OpenFromPath opens path in the configured editor, running the open hooks
// around it.
func OpenFromPath(ctx context.Context, path string) error {
	launch, err := EditorLaunchForPath(ctx, path)
	if err != nil {
		return err
	}

	if err := RunHooks(ctx, PreOpen, path); err != nil {
		return fmt.Errorf("pre-open hook failed: %w", err)
	}

	if launch.Wait {
		if launch.Cmd.Stdin == nil {
			launch.Cmd.Stdin = os.Stdin
		}
		if launch.Cmd.Stdout == nil {
			launch.Cmd.Stdout = os.Stdout
		}
		if launch.Cmd.Stderr == nil {
			launch.Cmd.Stderr = os.Stderr
		}
	}

	if err := launch.Cmd.Start(); err != nil {
		return fmt.Errorf("failed to start editor: %w", err)
	}

	if launch.Wait {
		if err := launch.Cmd.Wait(); err != nil {
			return fmt.Errorf("editor exited with error: %w", err)
		}
	} else if err := launch.Cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach editor: %w", err)
	}

	if err := RunHooks(ctx, PostOpen, path); err != nil {
		return fmt.Errorf("post-open hook failed: %w", err)
	}

	return nil
}
