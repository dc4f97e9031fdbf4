// Package renamer keeps note file names in sync with the name format of their
// template type.
package renamer

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/frontmatter"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/namefmt"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// Formats resolves a template type to its name format.
type Formats interface {
	Lookup(typ string) (string, bool)
}

type FrontmatterReader interface {
	Frontmatter(rel string) (frontmatter.Map, error)
}

type Store interface {
	MarkdownFiles() ([]string, error)
	Rename(ctx context.Context, oldRel, newRel string) error
}

// Reasons a note is left alone.
const (
	SkipTemplate  = "template"
	SkipNoType    = "no type"
	SkipUnknown   = "unknown type"
	SkipNoFormat  = "no name format"
	SkipUnchanged = "unchanged"
	SkipInFlight  = "in flight"
)

// Decision is the outcome of evaluating one note.
type Decision struct {
	From string
	To   string
	Skip string
}

// Renames reports whether the note should move.
func (d Decision) Renames() bool {
	return d.Skip == "" && d.To != "" && d.To != d.From
}

type Renamer struct {
	formats        Formats
	meta           FrontmatterReader
	store          Store
	templateFolder string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(formats Formats, meta FrontmatterReader, store Store, templateFolder string) *Renamer {
	return &Renamer{
		formats:        formats,
		meta:           meta,
		store:          store,
		templateFolder: templateFolder,
		inFlight:       make(map[string]struct{}),
	}
}

// Plan decides what HandleChanged would do with rel without touching the vault.
func (r *Renamer) Plan(ctx context.Context, rel string) (Decision, error) {
	rel = pathutil.CleanRelative(rel)
	d := Decision{From: rel}

	if pathutil.HasFolderPrefix(rel, r.templateFolder) {
		d.Skip = SkipTemplate
		return d, nil
	}

	attrs, err := r.meta.Frontmatter(rel)
	if err != nil {
		return d, err
	}

	typ := attrs.String(constants.KeyType)
	if typ == "" {
		d.Skip = SkipNoType
		return d, nil
	}

	format, ok := r.formats.Lookup(typ)
	if !ok {
		d.Skip = SkipUnknown
		return d, nil
	}

	name, ok := namefmt.Resolve(format, attrs)
	if !ok {
		d.Skip = SkipNoFormat
		return d, nil
	}

	d.To = pathutil.SiblingPath(rel, name+constants.NoteExt)
	if d.To == path.Clean(rel) {
		d.Skip = SkipUnchanged
	}

	logger.G(ctx).
		WithField("path", rel).
		WithField("type", typ).
		WithField("target", d.To).
		Debug("evaluated note name")

	return d, nil
}

// HandleChanged renames rel when its frontmatter calls for a different name.
// A note that is already being evaluated is skipped.
func (r *Renamer) HandleChanged(ctx context.Context, rel string) (Decision, error) {
	rel = pathutil.CleanRelative(rel)
	if !r.acquire(rel) {
		return Decision{From: rel, Skip: SkipInFlight}, nil
	}
	defer r.release(rel)

	d, err := r.Plan(ctx, rel)
	if err != nil || !d.Renames() {
		return d, err
	}

	if err := r.store.Rename(ctx, d.From, d.To); err != nil {
		return d, fmt.Errorf("failed to rename note: %w", err)
	}

	logger.G(ctx).
		WithField("from", d.From).
		WithField("to", d.To).
		Info("renamed note")

	return d, nil
}

// RenameAll evaluates every note in the vault. With dryRun set nothing is
// renamed. Failures for individual notes are collected and returned together.
func (r *Renamer) RenameAll(ctx context.Context, dryRun bool) ([]Decision, error) {
	files, err := r.store.MarkdownFiles()
	if err != nil {
		return nil, err
	}

	var (
		decisions []Decision
		result    *multierror.Error
	)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return decisions, err
		}

		var d Decision
		if dryRun {
			d, err = r.Plan(ctx, rel)
		} else {
			d, err = r.HandleChanged(ctx, rel)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		decisions = append(decisions, d)
	}

	return decisions, result.ErrorOrNil()
}

func (r *Renamer) acquire(rel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[rel]; busy {
		return false
	}
	r.inFlight[rel] = struct{}{}
	return true
}

func (r *Renamer) release(rel string) {
	r.mu.Lock()
	delete(r.inFlight, rel)
	r.mu.Unlock()
}
