// Package namefmt turns a naming pattern such as "<<type>> - <<title>>" into a
// filename using values from a note's frontmatter.
package namefmt

import (
	"strings"

	"github.com/Paintersrp/metamatter/internal/frontmatter"
)

const (
	OpenMarker  = "<<"
	CloseMarker = ">>"
)

// MaxSubstitutions bounds the number of tokens replaced in one pattern. A value
// that itself contains a token would otherwise expand forever.
const MaxSubstitutions = 256

var sanitizer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"?", "-",
	"%", "-",
	"*", "-",
	":", "-",
	"|", "-",
	"\"", "-",
	"<", "-",
	">", "-",
)

// Resolve expands every <<attr>> token in pattern and sanitizes the result.
// The boolean is false when pattern is empty, in which case no rename should
// be attempted.
//
// A token whose attribute is missing or falsy is replaced by the attribute
// name itself.
func Resolve(pattern string, attrs frontmatter.Map) (string, bool) {
	if pattern == "" {
		return "", false
	}
	return Sanitize(Expand(pattern, attrs)), true
}

// Expand performs token substitution without sanitizing. Scanning restarts from
// the beginning after every replacement and stops at the first malformed or
// inverted token.
func Expand(pattern string, attrs frontmatter.Map) string {
	out := pattern
	for i := 0; i < MaxSubstitutions; i++ {
		start := strings.Index(out, OpenMarker)
		end := strings.Index(out, CloseMarker)
		if start < 0 || end <= start+1 {
			break
		}

		name := out[start+len(OpenMarker) : end]
		replacement := name
		if v := attrs.Get(name); frontmatter.Truthy(v) {
			replacement = frontmatter.Stringify(v)
		}

		out = out[:start] + replacement + out[end+len(CloseMarker):]
	}
	return out
}

// Sanitize replaces characters that are illegal in filenames on common
// platforms with "-".
func Sanitize(name string) string {
	return sanitizer.Replace(name)
}
