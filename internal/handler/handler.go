package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// FileHandler is the storage layer for a vault. All paths it accepts and
// returns are vault-relative and use forward slashes.
type FileHandler struct {
	vaultDir string
	ignore   []string

	renameAttempts uint
	renameDelay    time.Duration
	rename         func(oldpath, newpath string) error
}

func NewFileHandler(vaultDir string, ignore []string) *FileHandler {
	return &FileHandler{
		vaultDir:       pathutil.NormalizePath(vaultDir),
		ignore:         append([]string(nil), ignore...),
		renameAttempts: 3,
		renameDelay:    100 * time.Millisecond,
		rename:         os.Rename,
	}
}

func (h *FileHandler) VaultDir() string {
	return h.vaultDir
}

// Abs resolves rel inside the vault.
func (h *FileHandler) Abs(rel string) (string, error) {
	return pathutil.Abs(h.vaultDir, rel)
}

// Relative converts an absolute path into a vault-relative one.
func (h *FileHandler) Relative(abs string) (string, error) {
	rel, err := pathutil.VaultRelative(h.vaultDir, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", pathutil.ErrOutsideVault
	}
	return rel, nil
}

// Ignored reports whether rel matches one of the configured ignore globs.
// Dot-prefixed files and folders are always ignored.
func (h *FileHandler) Ignored(rel string) bool {
	rel = pathutil.CleanRelative(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	for _, pattern := range h.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// MarkdownFiles lists every note in the vault in lexical walk order.
func (h *FileHandler) MarkdownFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(h.vaultDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return err
		}

		rel, err := h.Relative(path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if h.Ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() && strings.EqualFold(filepath.Ext(rel), constants.NoteExt) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// Read returns the content of a note.
func (h *FileHandler) Read(rel string) (string, error) {
	abs, err := h.Abs(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the content of an existing note.
func (h *FileHandler) Write(rel, content string) error {
	abs, err := h.Abs(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), info.Mode().Perm())
}

// Create writes a new note, creating parent folders as needed. It fails with
// fs.ErrExist when the note already exists. On a failed write the file and
// any folders created for it are removed again.
func (h *FileHandler) Create(rel, content string) (string, error) {
	abs, err := h.Abs(rel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}

	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		h.removeEmptyParents(filepath.Dir(abs))
		return "", err
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		h.removeCreatedArtifacts(abs)
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	if err := file.Close(); err != nil {
		h.removeCreatedArtifacts(abs)
		return "", fmt.Errorf("failed to write note: %w", err)
	}

	return abs, nil
}

// Rename moves a note. The target must not already be occupied by a different
// file; a rename that only changes letter case of the same file is allowed.
// Transient failures are retried.
func (h *FileHandler) Rename(ctx context.Context, oldRel, newRel string) error {
	oldAbs, err := h.Abs(oldRel)
	if err != nil {
		return err
	}
	newAbs, err := h.Abs(newRel)
	if err != nil {
		return err
	}

	oldInfo, err := os.Stat(oldAbs)
	if err != nil {
		return err
	}
	if newInfo, err := os.Stat(newAbs); err == nil {
		if !os.SameFile(oldInfo, newInfo) {
			return fmt.Errorf("cannot rename %q to %q: %w", oldRel, newRel, fs.ErrExist)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return retry.Do(
		func() error {
			return h.rename(oldAbs, newAbs)
		},
		retry.Attempts(h.renameAttempts),
		retry.Delay(h.renameDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrExist)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("from", oldRel).
				WithField("to", newRel).
				WithField("attempt", n+1).
				Warn("retrying rename")
		}),
	)
}

func (h *FileHandler) removeCreatedArtifacts(filePath string) {
	_ = os.Remove(filePath)
	h.removeEmptyParents(filepath.Dir(filePath))
}

func (h *FileHandler) removeEmptyParents(dir string) {
	vault := filepath.Clean(h.vaultDir)
	for dir != vault {
		rel, err := filepath.Rel(vault, dir)
		if err != nil || strings.HasPrefix(rel, "..") || rel == "." {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
