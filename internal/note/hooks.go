package note

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/viper"

	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/logger"
)

type Phase string

const (
	PreOpen    Phase = "pre_open"
	PostOpen   Phase = "post_open"
	PostCreate Phase = "post_create"
)

// RunHooks runs the workspace commands configured for phase against path.
func RunHooks(ctx context.Context, phase Phase, path string) error {
	var hooks config.HookConfig
	if err := viper.UnmarshalKey("workspace_hooks", &hooks); err != nil {
		return fmt.Errorf("failed to load workspace hooks: %w", err)
	}

	var commands []config.CommandTemplate
	switch phase {
	case PreOpen:
		commands = hooks.PreOpen
	case PostOpen:
		commands = hooks.PostOpen
	case PostCreate:
		commands = hooks.PostCreate
	default:
		return fmt.Errorf("unknown hook phase %q", phase)
	}

	p := newPlaceholders(path)
	for _, command := range commands {
		name := strings.TrimSpace(p.expand(command.Exec))
		if name == "" {
			continue
		}

		cmd := exec.CommandContext(ctx, name, p.expandAll(command.Args)...)
		if command.Silence != nil && *command.Silence {
			cmd.Stdout = io.Discard
			cmd.Stderr = io.Discard
		}

		logger.G(ctx).
			WithField("phase", string(phase)).
			WithField("hook", name).
			Debug("running hook")

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%s hook %q failed to start: %w", phase, name, err)
		}

		if command.Wait != nil && !*command.Wait {
			if err := cmd.Process.Release(); err != nil {
				return fmt.Errorf("%s hook %q release failed: %w", phase, name, err)
			}
			continue
		}

		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("%s hook %q failed: %w", phase, name, err)
		}
	}

	return nil
}
