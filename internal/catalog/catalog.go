// Package catalog indexes the template notes of a vault by their declared type.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/frontmatter"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// ErrNotFound is returned by Find when no template matches the query.
var ErrNotFound = errors.New("template not found")

// FrontmatterReader returns the parsed frontmatter of a vault-relative note.
type FrontmatterReader interface {
	Frontmatter(rel string) (frontmatter.Map, error)
}

// Template describes a single template note.
type Template struct {
	Path       string `mapstructure:"-"`
	Type       string `mapstructure:"type"`
	NameFormat string `mapstructure:"nameFormat"`
	DestFolder string `mapstructure:"destFolder"`
}

// Name is the template's file name without extension.
func (t Template) Name() string {
	return strings.TrimSuffix(path.Base(t.Path), path.Ext(t.Path))
}

// Catalog maps template types to name formats. Reload rebuilds it wholesale
// and swaps the result in under the write lock.
type Catalog struct {
	mu         sync.RWMutex
	reader     FrontmatterReader
	templates  []Template
	formats    map[string]string
	folder     string
	lastReload time.Time

	now func() time.Time
}

func New(reader FrontmatterReader) *Catalog {
	return &Catalog{
		reader:  reader,
		formats: make(map[string]string),
		now:     time.Now,
	}
}

// Reload rescans files for templates under templateFolder. Files whose
// frontmatter cannot be read are still listed but contribute no name format;
// their errors are returned together once the new catalog is in place.
func (c *Catalog) Reload(ctx context.Context, files []string, templateFolder string) error {
	var (
		templates []Template
		formats   = make(map[string]string)
		result    *multierror.Error
	)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !pathutil.HasFolderPrefix(rel, templateFolder) {
			continue
		}

		tmpl := Template{Path: rel}
		attrs, err := c.reader.Frontmatter(rel)
		if err == nil {
			err = decode(attrs, &tmpl)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			templates = append(templates, tmpl)
			continue
		}

		templates = append(templates, tmpl)
		if tmpl.Type != "" {
			formats[tmpl.Type] = tmpl.NameFormat
		}
	}

	c.mu.Lock()
	c.templates = templates
	c.formats = formats
	c.folder = templateFolder
	c.lastReload = c.now()
	c.mu.Unlock()

	logger.G(ctx).
		WithField("templates", len(templates)).
		WithField("types", len(formats)).
		Debug("template catalog reloaded")

	return result.ErrorOrNil()
}

func decode(attrs frontmatter.Map, tmpl *Template) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           tmpl,
	})
	if err != nil {
		return err
	}
	input := map[string]any{}
	if typ := attrs.String(constants.KeyType); typ != "" {
		input[constants.KeyType] = typ
	}
	for _, key := range []string{constants.KeyNameFormat, constants.KeyDestFolder} {
		if v := attrs.Get(key); v != nil {
			input[key] = v
		}
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("invalid template frontmatter: %w", err)
	}
	return nil
}

// Lookup returns the name format registered for typ.
func (c *Catalog) Lookup(typ string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	format, ok := c.formats[typ]
	return format, ok
}

// Templates returns every template found by the last reload, sorted by path.
func (c *Catalog) Templates() []Template {
	c.mu.RLock()
	out := append([]Template(nil), c.templates...)
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Find resolves a template by path, file name or type, in that order.
func (c *Catalog) Find(query string) (Template, error) {
	query = strings.TrimSpace(query)
	templates := c.Templates()

	for _, t := range templates {
		if t.Path == query || t.Path == query+constants.NoteExt {
			return t, nil
		}
	}
	for _, t := range templates {
		if strings.EqualFold(t.Name(), query) {
			return t, nil
		}
	}
	for _, t := range templates {
		if t.Type != "" && strings.EqualFold(t.Type, query) {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrNotFound, query)
}

// Len returns the number of indexed types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.formats)
}

// Folder returns the template folder used by the last reload.
func (c *Catalog) Folder() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.folder
}

// LastReload returns when the catalog was last rebuilt.
func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReload
}
