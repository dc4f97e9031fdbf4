// Package fzf lets the user choose a template with a fuzzy finder.
package fzf

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/metamatter/internal/catalog"
)

// ErrNoSelection is returned when the finder is closed without a choice.
var ErrNoSelection = errors.New("no template selected")

// Reader loads the raw content of a template for the preview window.
type Reader interface {
	Read(rel string) (string, error)
}

type TemplatePicker struct {
	reader Reader
	Header string

	find func(labels []string, opts ...fuzzyfinder.Option) (int, error)
}

func NewTemplatePicker(reader Reader, header string) *TemplatePicker {
	return &TemplatePicker{reader: reader, Header: header, find: findLabel}
}

func findLabel(labels []string, opts ...fuzzyfinder.Option) (int, error) {
	return fuzzyfinder.Find(labels, func(i int) string {
		return labels[i]
	}, opts...)
}

// Label is the line shown for a template in the finder.
func Label(t catalog.Template) string {
	if t.Type == "" {
		return fmt.Sprintf("%s (%s)", t.Name(), t.Path)
	}
	return fmt.Sprintf("%s [%s] (%s)", t.Name(), t.Type, t.Path)
}

// Pick shows templates in the finder, optionally prefilled with query.
func (p *TemplatePicker) Pick(templates []catalog.Template, query string) (catalog.Template, error) {
	if len(templates) == 0 {
		return catalog.Template{}, fmt.Errorf("%w: the template folder is empty", ErrNoSelection)
	}

	labels := make([]string, len(templates))
	for i, t := range templates {
		labels[i] = Label(t)
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(templates) {
				return ""
			}
			return p.renderPreview(templates[i], w)
		}),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if p.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(p.Header))
	}

	idx, err := p.find(labels, options...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return catalog.Template{}, ErrNoSelection
		}
		return catalog.Template{}, fmt.Errorf("error selecting template: %w", err)
	}
	if idx < 0 || idx >= len(templates) {
		return catalog.Template{}, ErrNoSelection
	}

	return templates[idx], nil
}

func (p *TemplatePicker) renderPreview(t catalog.Template, width int) string {
	content, err := p.reader.Read(t.Path)
	if err != nil {
		return "Error reading template"
	}

	wrap := 100
	if width > 4 && width-4 < wrap {
		wrap = width - 4
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(wrap),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return content
	}

	markdown, err := r.Render(content)
	if err != nil {
		return "Error rendering markdown"
	}

	return markdown
}
