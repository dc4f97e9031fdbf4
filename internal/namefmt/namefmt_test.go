package namefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Paintersrp/metamatter/internal/frontmatter"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		attrs   frontmatter.Map
		want    string
	}{
		{
			name:    "substitutes and sanitizes",
			pattern: "<<type>> - <<title>>",
			attrs:   frontmatter.Map{"type": "Meeting", "title": "Q1:Review"},
			want:    "Meeting - Q1-Review",
		},
		{
			name:    "missing attribute degrades to its name",
			pattern: "Note-<<missing>>",
			attrs:   frontmatter.Map{},
			want:    "Note-missing",
		},
		{
			name:    "nil map behaves like empty",
			pattern: "<<title>>",
			attrs:   nil,
			want:    "title",
		},
		{
			name:    "falsy values count as missing",
			pattern: "<<a>>|<<b>>|<<c>>",
			attrs:   frontmatter.Map{"a": "", "b": 0, "c": false},
			want:    "a-b-c",
		},
		{
			name:    "numbers and lists are stringified",
			pattern: "<<year>> <<tags>>",
			attrs:   frontmatter.Map{"year": 2024, "tags": []any{"x", "y"}},
			want:    "2024 x,y",
		},
		{
			name:    "same attribute twice",
			pattern: "<<t>>-<<t>>",
			attrs:   frontmatter.Map{"t": "A"},
			want:    "A-A",
		},
		{
			name:    "no tokens only sanitizes",
			pattern: `a/b\c?d%e*f:g|h"i<j>k`,
			attrs:   frontmatter.Map{"a": "zzz"},
			want:    "a-b-c-d-e-f-g-h-i-j-k",
		},
		{
			name:    "unclosed token left as-is then sanitized",
			pattern: "<<title",
			attrs:   frontmatter.Map{"title": "x"},
			want:    "--title",
		},
		{
			name:    "inverted markers stop scanning",
			pattern: ">> <<title>>",
			attrs:   frontmatter.Map{"title": "x"},
			want:    "-- --title--",
		},
		{
			name:    "value containing a token is expanded again",
			pattern: "<<a>>",
			attrs:   frontmatter.Map{"a": "<<b>>", "b": "done"},
			want:    "done",
		},
		{
			name:    "unicode passes through untouched",
			pattern: "<<title>>",
			attrs:   frontmatter.Map{"title": "Café – 会議"},
			want:    "Café – 会議",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.pattern, tt.attrs)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEmptyPatternIsAbsent(t *testing.T) {
	got, ok := Resolve("", frontmatter.Map{"type": "Meeting"})
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestResolveSelfReferenceTerminates(t *testing.T) {
	got, ok := Resolve("<<a>>", frontmatter.Map{"a": "<<a>>"})
	assert.True(t, ok)
	assert.Equal(t, "--a--", got)
}

func TestResolveIsIdempotentWithoutMarkers(t *testing.T) {
	attrs := frontmatter.Map{"title": "ignored"}
	for _, pattern := range []string{"plain", "Q1-Review", "a b c", "2024-03-15"} {
		once, _ := Resolve(pattern, attrs)
		twice, _ := Resolve(once, attrs)
		assert.Equal(t, once, twice)
		assert.Equal(t, pattern, once)
	}
}

func TestSanitizeOnlyTouchesIllegalCharacters(t *testing.T) {
	in := `Meeting - Q1:Review (draft) [v2] #tag`
	assert.Equal(t, `Meeting - Q1-Review (draft) [v2] #tag`, Sanitize(in))
}
