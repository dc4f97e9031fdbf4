// Package templater turns a template note into the content of a new note.
package templater

import (
	"errors"
	"fmt"
	"time"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/frontmatter"
)

// ErrMalformedTemplate is returned when a template has no usable frontmatter block.
var ErrMalformedTemplate = errors.New("malformed template: missing frontmatter block")

// Templater fills templates. The zero value is not usable; call NewTemplater.
type Templater struct {
	now func() time.Time
}

type Option func(*Templater)

// WithClock replaces the clock used for the created timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *Templater) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTemplater(opts ...Option) *Templater {
	t := &Templater{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Timestamp renders the current local time as YYMMDD@HHmm.
func (t *Templater) Timestamp() string {
	return t.now().Local().Format(constants.TimestampLayout)
}

// Fill strips the template control keys from raw, stamps a created time when
// addCreated is set and returns the resulting note content.
func (t *Templater) Fill(raw string) (string, error) {
	block, err := frontmatter.Locate(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedTemplate, err)
	}

	doc, err := frontmatter.ParseDocument(block.Raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedTemplate, err)
	}

	if v, ok := doc.Value(constants.KeyAddCreated); ok && frontmatter.Truthy(v) {
		doc.Delete(constants.KeyAddCreated)
		doc.SetString(constants.KeyCreated, t.Timestamp())
	}

	doc.Delete(constants.KeyNameFormat)
	doc.Delete(constants.KeyDestFolder)
	doc.Normalize()

	out, err := doc.Encode()
	if err != nil {
		return "", err
	}
	if len(doc.Keys()) == 0 {
		out = ""
	}

	return frontmatter.Delimiter + "\n" + out + raw[block.Close:], nil
}
