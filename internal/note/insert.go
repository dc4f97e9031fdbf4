package note

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Paintersrp/metamatter/internal/catalog"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/templater"
)

// Inserter places filled templates into existing notes.
type Inserter struct {
	store     Store
	templater *templater.Templater
}

func NewInserter(store Store, t *templater.Templater) *Inserter {
	return &Inserter{store: store, templater: t}
}

// Render returns the filled content of tmpl.
func (i *Inserter) Render(tmpl catalog.Template) (string, error) {
	raw, err := i.store.Read(tmpl.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}

	content, err := i.templater.Fill(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tmpl.Path, err)
	}
	return content, nil
}

// InsertIntoNote inserts the filled template into the note at rel before the
// given 1-based line. A line of zero or past the end appends.
func (i *Inserter) InsertIntoNote(ctx context.Context, tmpl catalog.Template, rel string, line int) error {
	filled, err := i.Render(tmpl)
	if err != nil {
		return err
	}

	current, err := i.store.Read(rel)
	if err != nil {
		return fmt.Errorf("failed to read note: %w", err)
	}

	if err := i.store.Write(rel, InsertAt(current, filled, line)); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}

	logger.G(ctx).
		WithField("template", tmpl.Path).
		WithField("note", rel).
		WithField("line", line).
		Info("inserted template")
	return nil
}

// CopyToClipboard puts the filled template on the system clipboard.
func (i *Inserter) CopyToClipboard(tmpl catalog.Template) error {
	filled, err := i.Render(tmpl)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(filled); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// InsertAt inserts text into content before the 1-based line. Lines outside
// the document append text at the end.
func InsertAt(content, text string, line int) string {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if line <= 0 || line > len(lines) {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + text
	}

	var b strings.Builder
	for _, l := range lines[:line-1] {
		b.WriteString(l)
	}
	b.WriteString(text)
	for _, l := range lines[line-1:] {
		b.WriteString(l)
	}
	return b.String()
}
