package note

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/pathutil"
	"github.com/Paintersrp/metamatter/internal/templater"
)

// Store is the part of the vault storage used to create and edit notes.
type Store interface {
	Read(rel string) (string, error)
	Write(rel, content string) error
	Create(rel, content string) (string, error)
}

// Creator makes new notes from templates.
type Creator struct {
	store     Store
	templater *templater.Templater
}

func NewCreator(store Store, t *templater.Templater) *Creator {
	return &Creator{store: store, templater: t}
}

// Target returns the vault-relative path a note created from tmpl right now
// would get: its destFolder (the vault root by default) and a timestamp name.
func (c *Creator) Target(tmpl catalog.Template) (string, error) {
	name := c.templater.Timestamp() + constants.NoteExt

	dest := pathutil.CleanRelative(tmpl.DestFolder)
	if dest == ".." || strings.HasPrefix(dest, "../") {
		return "", fmt.Errorf("destination folder %q: %w", tmpl.DestFolder, pathutil.ErrOutsideVault)
	}
	if dest == "." {
		return name, nil
	}
	return path.Join(dest, name), nil
}

// CreateFromTemplate fills tmpl and writes the result to a new note. It never
// overwrites an existing note. The absolute path of the note is returned.
func (c *Creator) CreateFromTemplate(ctx context.Context, tmpl catalog.Template) (string, error) {
	raw, err := c.store.Read(tmpl.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	content, err := c.templater.Fill(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tmpl.Path, err)
	}

	rel, err := c.Target(tmpl)
	if err != nil {
		return "", err
	}

	abs, err := c.store.Create(rel, content)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("note %s already exists: %w", rel, err)
		}
		return "", fmt.Errorf("failed to create note: %w", err)
	}

	logger.G(ctx).
		WithField("template", tmpl.Path).
		WithField("note", rel).
		Info("created note from template")

	if err := RunHooks(ctx, PostCreate, abs); err != nil {
		return abs, fmt.Errorf("post-create hook failed: %w", err)
	}

	return abs, nil
}
