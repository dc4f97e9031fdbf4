package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/config"
	"github.com/Paintersrp/metamatter/internal/events"
	"github.com/Paintersrp/metamatter/internal/handler"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/metadata"
	"github.com/Paintersrp/metamatter/internal/pathutil"
	"github.com/Paintersrp/metamatter/internal/renamer"
	"github.com/Paintersrp/metamatter/internal/templater"
)

// ErrNoVault is returned by commands that need a vault when none is configured.
var ErrNoVault = errors.New("no vault configured; run `mm settings set vaultdir <path>`")

type State struct {
	Config        *config.Config
	Workspace     *config.Workspace
	WorkspaceName string
	Home          string
	Vault         string
	Handler       *handler.FileHandler
	Metadata      *metadata.Cache
	Catalog       *catalog.Catalog
	Templater     *templater.Templater
	Renamer       *renamer.Renamer
	Watcher       *VaultWatcher
}

type Options struct {
	// Home overrides the user's home directory.
	Home      string
	Workspace string
	LogLevel  string
	LogFormat string
}

func NewState(opts Options) (*State, error) {
	s := &State{}
	if err := s.Init(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Init loads settings and assembles the vault services in place. A settings
// file that cannot be loaded is reported and replaced by defaults.
func (s *State) Init(opts Options) error {
	home := opts.Home
	if home == "" {
		var err error
		home, err = GetHomeDir()
		if err != nil {
			return err
		}
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		var loadErr *config.LoadError
		if !errors.As(err, &loadErr) {
			return err
		}
		logger.L.WithError(err).Warn("using default settings")
	}

	if opts.Workspace != "" {
		if err := cfg.ActivateWorkspace(opts.Workspace); err != nil {
			return err
		}
	}

	if err := configureLogging(cfg, opts); err != nil {
		return err
	}

	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}

	vault := pathutil.NormalizePath(os.ExpandEnv(ws.VaultDir))
	meta := metadata.NewCache(vault, metadata.DefaultCacheSize)
	h := handler.NewFileHandler(vault, ws.Watch.Ignore)
	cat := catalog.New(meta)

	*s = State{
		Config:        cfg,
		Workspace:     ws,
		WorkspaceName: cfg.CurrentWorkspace,
		Home:          home,
		Vault:         vault,
		Handler:       h,
		Metadata:      meta,
		Catalog:       cat,
		Templater:     templater.NewTemplater(),
		Renamer:       renamer.New(cat, meta, h, ws.TemplateFolder),
	}
	return nil
}

func configureLogging(cfg *config.Config, opts Options) error {
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if err := logger.SetLogLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	format := cfg.LogFormat
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	logger.SetLogFormat(format)
	return nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

func LoadConfig(home string) (*config.Config, error) {
	return config.Load(home)
}

// RequireVault reports whether the active workspace points at an existing folder.
func (s *State) RequireVault() error {
	if s == nil || s.Vault == "" {
		return ErrNoVault
	}
	info, err := os.Stat(s.Vault)
	if err != nil {
		return fmt.Errorf("vault %s: %w", s.Vault, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault %s is not a directory", s.Vault)
	}
	return nil
}

// ReloadTemplates rebuilds the template catalog from the vault and returns the
// number of indexed types.
func (s *State) ReloadTemplates(ctx context.Context) (int, error) {
	if err := s.RequireVault(); err != nil {
		return 0, err
	}

	files, err := s.Handler.MarkdownFiles()
	if err != nil {
		return 0, err
	}

	err = s.Catalog.Reload(ctx, files, s.Workspace.TemplateFolder)
	return s.Catalog.Len(), err
}

func (s *State) isTemplate(rel string) bool {
	return pathutil.HasFolderPrefix(rel, s.Workspace.TemplateFolder)
}

// Register wires the vault services to bus.
func (s *State) Register(bus *events.Bus) {
	reload := func(ctx context.Context, _ events.Event) error {
		n, err := s.ReloadTemplates(ctx)
		logger.G(ctx).WithField("types", n).Info("templates reloaded")
		return err
	}

	bus.On(events.LayoutReady, reload)

	bus.On(events.NoteChanged, func(ctx context.Context, ev events.Event) error {
		s.Metadata.Invalidate(ev.Path)
		if s.isTemplate(ev.Path) {
			if s.Workspace.Watch.AutoReloadEnabled() {
				return reload(ctx, ev)
			}
			return nil
		}
		_, err := s.Renamer.HandleChanged(ctx, ev.Path)
		return err
	})

	bus.On(events.NoteRemoved, func(ctx context.Context, ev events.Event) error {
		s.Metadata.Invalidate(ev.Path)
		if s.isTemplate(ev.Path) && s.Workspace.Watch.AutoReloadEnabled() {
			return reload(ctx, ev)
		}
		return nil
	})
}

// Watch runs the vault event loop until ctx is cancelled.
func (s *State) Watch(ctx context.Context) error {
	if err := s.RequireVault(); err != nil {
		return err
	}

	debounce := time.Duration(s.Workspace.Watch.DebounceMillis) * time.Millisecond
	watcher, err := NewVaultWatcher(s.Vault, debounce, s.Handler.Ignored)
	if err != nil {
		return fmt.Errorf("failed to create vault watcher: %w", err)
	}

	bus := events.NewBus(64)
	s.Register(bus)
	watcher.OnClose(bus.Close)
	s.Watcher = watcher

	logger.G(ctx).
		WithField("vault", s.Vault).
		WithField("debounce", debounce).
		Info("watching vault")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Run(gctx)
	})
	g.Go(func() error {
		defer watcher.Close()
		return watcher.Run(gctx, bus)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close releases resources associated with the state.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
