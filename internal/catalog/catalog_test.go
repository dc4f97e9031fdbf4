package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/metamatter/internal/frontmatter"
)

type fakeReader map[string]frontmatter.Map

func (f fakeReader) Frontmatter(rel string) (frontmatter.Map, error) {
	attrs, ok := f[rel]
	if !ok {
		return nil, errors.New("unreadable")
	}
	return attrs, nil
}

func TestReloadIndexesTypedTemplates(t *testing.T) {
	reader := fakeReader{
		"Templates/Review.md":   {"type": "Review", "nameFormat": "<<title>> review", "destFolder": "Reviews"},
		"Templates/Plain.md":    {"title": "no type"},
		"Templates/Year.md":     {"type": 2024, "nameFormat": "<<year>>"},
		"Templates2/Stray.md":   {"type": "Stray", "nameFormat": "stray"},
		"Notes/NotATemplate.md": {"type": "Review", "nameFormat": "ignored"},
	}
	files := []string{
		"Notes/NotATemplate.md",
		"Templates/Plain.md",
		"Templates/Review.md",
		"Templates/Year.md",
		"Templates2/Stray.md",
	}

	c := New(reader)
	require.NoError(t, c.Reload(context.Background(), files, "Templates"))

	format, ok := c.Lookup("Review")
	assert.True(t, ok)
	assert.Equal(t, "<<title>> review", format)

	format, ok = c.Lookup("2024")
	assert.True(t, ok)
	assert.Equal(t, "<<year>>", format)

	// Plain prefix match: Templates2 counts as the template folder.
	_, ok = c.Lookup("Stray")
	assert.True(t, ok)

	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Templates(), 4)
	assert.Equal(t, "Templates", c.Folder())
	assert.False(t, c.LastReload().IsZero())
}

func TestReloadStringifiesTypeLikeNotes(t *testing.T) {
	reader := fakeReader{
		"Templates/Flag.md":  {"type": true, "nameFormat": "flagged"},
		"Templates/Ratio.md": {"type": 1.5, "nameFormat": "ratio"},
		"Templates/Off.md":   {"type": false, "nameFormat": "off"},
	}

	c := New(reader)
	require.NoError(t, c.Reload(context.Background(), []string{"Templates/Flag.md", "Templates/Ratio.md", "Templates/Off.md"}, "Templates"))

	for typ, want := range map[string]string{"true": "flagged", "1.5": "ratio"} {
		format, ok := c.Lookup(typ)
		assert.True(t, ok, typ)
		assert.Equal(t, want, format, typ)
	}
	_, ok := c.Lookup("1")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestReloadLastTemplateWins(t *testing.T) {
	reader := fakeReader{
		"Templates/a.md": {"type": "Idea", "nameFormat": "first"},
		"Templates/b.md": {"type": "Idea", "nameFormat": "second"},
	}

	c := New(reader)
	require.NoError(t, c.Reload(context.Background(), []string{"Templates/a.md", "Templates/b.md"}, "Templates"))

	format, ok := c.Lookup("Idea")
	require.True(t, ok)
	assert.Equal(t, "second", format)
}

func TestReloadDiscardsStaleEntries(t *testing.T) {
	reader := fakeReader{
		"Templates/a.md": {"type": "Old", "nameFormat": "old"},
		"Templates/b.md": {"type": "New", "nameFormat": "new"},
	}

	c := New(reader)
	require.NoError(t, c.Reload(context.Background(), []string{"Templates/a.md"}, "Templates"))
	_, ok := c.Lookup("Old")
	require.True(t, ok)

	require.NoError(t, c.Reload(context.Background(), []string{"Templates/b.md"}, "Templates"))
	_, ok = c.Lookup("Old")
	assert.False(t, ok)
	_, ok = c.Lookup("New")
	assert.True(t, ok)
}

func TestReloadCollectsErrors(t *testing.T) {
	reader := fakeReader{
		"Templates/good.md": {"type": "Good", "nameFormat": "ok"},
		"Templates/bad.md":  {"type": "Bad", "nameFormat": []any{"not", "a", "string"}},
	}
	files := []string{"Templates/bad.md", "Templates/good.md", "Templates/missing.md"}

	c := New(reader)
	err := c.Reload(context.Background(), files, "Templates")
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)

	_, ok := c.Lookup("Good")
	assert.True(t, ok)
	_, ok = c.Lookup("Bad")
	assert.False(t, ok)
	assert.Len(t, c.Templates(), 3)
}

func TestReloadHonorsCancellation(t *testing.T) {
	c := New(fakeReader{"Templates/a.md": {"type": "A"}})
	require.NoError(t, c.Reload(context.Background(), []string{"Templates/a.md"}, "Templates"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Reload(ctx, []string{"Templates/a.md"}, "Templates")
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := c.Lookup("A")
	assert.True(t, ok, "a cancelled reload keeps the previous catalog")
}

func TestFind(t *testing.T) {
	reader := fakeReader{
		"Templates/Daily Review.md": {"type": "Review"},
		"Templates/Meeting.md":      {"type": "Meeting"},
	}

	c := New(reader)
	require.NoError(t, c.Reload(context.Background(), []string{"Templates/Daily Review.md", "Templates/Meeting.md"}, "Templates"))

	cases := map[string]string{
		"Templates/Meeting.md": "Templates/Meeting.md",
		"Templates/Meeting":    "Templates/Meeting.md",
		"daily review":         "Templates/Daily Review.md",
		"review":               "Templates/Daily Review.md",
	}
	for query, want := range cases {
		got, err := c.Find(query)
		require.NoError(t, err, query)
		assert.Equal(t, want, got.Path, query)
	}

	_, err := c.Find("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateName(t *testing.T) {
	assert.Equal(t, "Daily Review", Template{Path: "Templates/Daily Review.md"}.Name())
}
