package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/metamatter/internal/constants"
)

type CommandTemplate struct {
	Exec    string   `yaml:"exec"    json:"exec"`
	Args    []string `yaml:"args"    json:"args"`
	Wait    *bool    `yaml:"wait"    json:"wait"`
	Silence *bool    `yaml:"silence" json:"silence"`
}

type HookConfig struct {
	PreOpen    []CommandTemplate `yaml:"pre_open"    json:"pre_open"`
	PostOpen   []CommandTemplate `yaml:"post_open"   json:"post_open"`
	PostCreate []CommandTemplate `yaml:"post_create" json:"post_create"`
}

type WatchConfig struct {
	DebounceMillis int      `yaml:"debounce_ms" json:"debounce_ms"`
	Ignore         []string `yaml:"ignore"      json:"ignore"`
	AutoReload     *bool    `yaml:"auto_reload" json:"auto_reload"`
}

// AutoReloadEnabled reports whether template folder changes reload the catalog.
func (w WatchConfig) AutoReloadEnabled() bool {
	return w.AutoReload == nil || *w.AutoReload
}

type Workspace struct {
	VaultDir       string          `yaml:"vaultdir"        json:"vault_dir"`
	TemplateFolder string          `yaml:"template_folder" json:"template_folder"`
	Editor         string          `yaml:"editor"          json:"editor"`
	NvimArgs       string          `yaml:"nvimargs"        json:"nvim_args"`
	EditorTemplate CommandTemplate `yaml:"editor_template" json:"editor_template"`
	Hooks          HookConfig      `yaml:"hooks"           json:"hooks"`
	Watch          WatchConfig     `yaml:"watch"           json:"watch"`
}

type Config struct {
	Workspaces       map[string]*Workspace `yaml:"workspaces"        json:"workspaces"`
	CurrentWorkspace string                `yaml:"current_workspace" json:"current_workspace"`
	LogLevel         string                `yaml:"log_level"         json:"log_level"`
	LogFormat        string                `yaml:"log_format"        json:"log_format"`

	home   string     `yaml:"-"`
	active *Workspace `yaml:"-"`
	// saved is the workspace written by Save; ActivateWorkspace leaves it alone.
	saved   string `yaml:"-"`
	loadErr error  `yaml:"-"`
}

const defaultWorkspaceName = "default"

var validEditorNames = []string{"nvim", "obsidian", "vscode", "code", "vim", "nano", "custom"}

var ValidEditors = func() map[string]bool {
	editors := make(map[string]bool, len(validEditorNames))
	for _, editor := range validEditorNames {
		editors[editor] = true
	}

	return editors
}()

func ValidateEditor(editor string) error {
	if _, valid := ValidEditors[editor]; valid {
		return nil
	}

	return fmt.Errorf(
		"invalid editor: %q. Please choose from %s.",
		editor,
		validEditorList(),
	)
}

func validEditorList() string {
	quoted := make([]string, len(validEditorNames))
	for i, name := range validEditorNames {
		quoted[i] = fmt.Sprintf("'%s'", name)
	}

	if len(quoted) == 1 {
		return quoted[0]
	}

	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}

func newWorkspace() *Workspace {
	ws := &Workspace{}
	ws.ensureDefaults()
	return ws
}

func (ws *Workspace) ensureDefaults() {
	ws.TemplateFolder = strings.TrimSpace(ws.TemplateFolder)
	if ws.TemplateFolder == "" {
		ws.TemplateFolder = constants.DefaultTemplateFolder
	}
	if ws.Watch.DebounceMillis <= 0 {
		ws.Watch.DebounceMillis = constants.DefaultDebounceMillis
	}
	if ws.Watch.Ignore == nil {
		ws.Watch.Ignore = append([]string(nil), constants.DefaultWatchIgnore...)
	}
	if ws.Watch.AutoReload == nil {
		enabled := true
		ws.Watch.AutoReload = &enabled
	}
}

// Default returns the settings used when no settings file exists.
func Default(home string) *Config {
	cfg := &Config{home: home}
	if err := cfg.ensureInitialized(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the settings file under home. A missing or empty file yields the
// defaults. A file that cannot be read or parsed yields the defaults together
// with a *LoadError, and the returned settings refuse to Save so the file on
// disk is left as it is.
func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(home), nil
		}
		return fallback(home, &LoadError{Path: path, Err: err})
	}

	cfg := &Config{home: home}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fallback(home, &LoadError{Path: path, Err: err})
		}
	}

	if err := cfg.ensureInitialized(); err != nil {
		return fallback(home, &LoadError{Path: path, Err: err})
	}

	ws := cfg.active
	if ws.Editor != "" {
		if err := ValidateEditor(ws.Editor); err != nil {
			return cfg, &LoadError{Path: path, Err: err}
		}
	}

	return cfg, nil
}

func fallback(home string, err *LoadError) (*Config, error) {
	cfg := Default(home)
	cfg.loadErr = err
	return cfg, err
}

func (cfg *Config) ensureInitialized() error {
	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]*Workspace)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = constants.DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = constants.DefaultLogFormat
	}

	if cfg.CurrentWorkspace == "" {
		if len(cfg.Workspaces) == 0 {
			cfg.Workspaces[defaultWorkspaceName] = newWorkspace()
			cfg.CurrentWorkspace = defaultWorkspaceName
		} else {
			cfg.CurrentWorkspace = cfg.WorkspaceNames()[0]
		}
	}

	if err := cfg.setActiveWorkspace(cfg.CurrentWorkspace); err != nil {
		return err
	}
	if cfg.saved == "" {
		cfg.saved = cfg.CurrentWorkspace
	}
	return nil
}

func (cfg *Config) setActiveWorkspace(name string) error {
	if name == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}
	ws, ok := cfg.Workspaces[name]
	if !ok {
		return fmt.Errorf("workspace %q does not exist", name)
	}
	if ws == nil {
		ws = newWorkspace()
		cfg.Workspaces[name] = ws
	}

	ws.ensureDefaults()
	cfg.CurrentWorkspace = name
	cfg.active = ws

	cfg.syncViperWithActiveWorkspace()

	return nil
}

func (cfg *Config) syncViperWithActiveWorkspace() {
	if cfg.active == nil {
		return
	}

	syncWorkspaceWithViper(cfg.active)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
}

func syncWorkspaceWithViper(ws *Workspace) {
	viper.Set("vaultdir", ws.VaultDir)
	viper.Set("template_folder", ws.TemplateFolder)
	viper.Set("editor", ws.Editor)
	viper.Set("nvimargs", ws.NvimArgs)
	viper.Set("editor_template", ws.EditorTemplate)
	viper.Set("workspace_hooks", ws.Hooks)
	viper.Set("watch", ws.Watch)
}

func (cfg *Config) ActiveWorkspace() (*Workspace, error) {
	if cfg.active != nil {
		return cfg.active, nil
	}

	if cfg.CurrentWorkspace == "" {
		return nil, fmt.Errorf("no workspace is currently selected")
	}

	if err := cfg.setActiveWorkspace(cfg.CurrentWorkspace); err != nil {
		return nil, err
	}

	return cfg.active, nil
}

func (cfg *Config) MustWorkspace() *Workspace {
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		panic(err)
	}
	return ws
}

func (cfg *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(cfg.Workspaces))
	for name := range cfg.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActivateWorkspace selects name for this run. Save keeps writing the
// previously chosen workspace as current.
func (cfg *Config) ActivateWorkspace(name string) error {
	return cfg.setActiveWorkspace(name)
}

// SwitchWorkspace makes name the current workspace and saves.
func (cfg *Config) SwitchWorkspace(name string) error {
	if err := cfg.setActiveWorkspace(name); err != nil {
		return err
	}
	cfg.saved = name
	return cfg.Save()
}

func (cfg *Config) AddWorkspace(name string, ws *Workspace, makeCurrent bool) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("workspace name cannot be empty")
	}

	if _, exists := cfg.Workspaces[trimmed]; exists {
		return fmt.Errorf("workspace %q already exists", trimmed)
	}

	if ws == nil {
		ws = newWorkspace()
	}
	ws.ensureDefaults()
	cfg.Workspaces[trimmed] = ws

	if makeCurrent {
		return cfg.SwitchWorkspace(trimmed)
	}

	return cfg.Save()
}

func (cfg *Config) ChangeEditor(editor string) error {
	if err := ValidateEditor(editor); err != nil {
		return err
	}

	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}

	ws.Editor = editor
	return cfg.Save()
}

// Path returns the location of the settings file.
func (cfg *Config) Path() string {
	home := cfg.home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return ""
		}
	}
	return GetConfigPath(home)
}

// Save writes the settings file. It fails when the file could not be loaded.
func (cfg *Config) Save() error {
	if cfg.loadErr != nil {
		return fmt.Errorf("refusing to overwrite unreadable settings: %w", cfg.loadErr)
	}

	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}

	if ws.Editor != "" {
		if err := ValidateEditor(ws.Editor); err != nil {
			return err
		}
	}

	cfg.syncViperWithActiveWorkspace()

	out := *cfg
	if cfg.saved != "" {
		out.CurrentWorkspace = cfg.saved
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	configPath := cfg.Path()
	if configPath == "" {
		return fmt.Errorf("cannot determine settings path")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// Keys lists the settings that Get and Set understand.
func Keys() []string {
	return []string{
		"current_workspace",
		"log_level",
		"log_format",
		"vaultdir",
		"template_folder",
		"editor",
		"nvimargs",
		"watch.debounce_ms",
		"watch.ignore",
		"watch.auto_reload",
	}
}

// Choices lists the accepted values of key, or nil when any text is accepted.
func Choices(key string) []string {
	switch key {
	case "editor":
		return append([]string{}, validEditorNames...)
	case "log_level":
		return []string{"trace", "debug", "info", "warn", "error"}
	case "log_format":
		return []string{"text", "json"}
	case "watch.auto_reload":
		return []string{"true", "false"}
	}
	return nil
}

// Get returns the value of a setting of the active workspace as text.
func (cfg *Config) Get(key string) (string, error) {
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return "", err
	}

	switch key {
	case "current_workspace":
		return cfg.CurrentWorkspace, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_format":
		return cfg.LogFormat, nil
	case "vaultdir":
		return ws.VaultDir, nil
	case "template_folder":
		return ws.TemplateFolder, nil
	case "editor":
		return ws.Editor, nil
	case "nvimargs":
		return ws.NvimArgs, nil
	case "watch.debounce_ms":
		return strconv.Itoa(ws.Watch.DebounceMillis), nil
	case "watch.ignore":
		return strings.Join(ws.Watch.Ignore, ","), nil
	case "watch.auto_reload":
		return strconv.FormatBool(ws.Watch.AutoReloadEnabled()), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Set validates and stores a setting of the active workspace, then saves.
func (cfg *Config) Set(key, value string) error {
	ws, err := cfg.ActiveWorkspace()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	switch key {
	case "current_workspace":
		return cfg.SwitchWorkspace(value)
	case "log_level":
		if _, err := logrus.ParseLevel(value); err != nil {
			return err
		}
		cfg.LogLevel = value
	case "log_format":
		if value != "text" && value != "json" {
			return fmt.Errorf("invalid log format: %q. Please choose from 'text' or 'json'.", value)
		}
		cfg.LogFormat = value
	case "vaultdir":
		ws.VaultDir = value
	case "template_folder":
		ws.TemplateFolder = value
	case "editor":
		return cfg.ChangeEditor(value)
	case "nvimargs":
		ws.NvimArgs = value
	case "watch.debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid debounce: %q must be a positive number of milliseconds", value)
		}
		ws.Watch.DebounceMillis = n
	case "watch.ignore":
		var patterns []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		ws.Watch.Ignore = append([]string{}, patterns...)
	case "watch.auto_reload":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid auto_reload: %w", err)
		}
		ws.Watch.AutoReload = &enabled
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	ws.ensureDefaults()
	return cfg.Save()
}
