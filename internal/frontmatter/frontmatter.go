// Package frontmatter locates, parses and rewrites the YAML metadata block at
// the top of a markdown note.
package frontmatter

import (
	"errors"
	"strings"
)

// Delimiter opens and closes a frontmatter block. It must sit on a line of its own.
const Delimiter = "---"

var (
	ErrMissingFrontmatter      = errors.New("missing frontmatter block")
	ErrUnterminatedFrontmatter = errors.New("unterminated frontmatter block")
)

// Map is a parsed frontmatter block.
type Map map[string]any

// Get returns the raw value stored under key.
func (m Map) Get(key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// String returns the string form of key, or "" when key is absent or falsy.
func (m Map) String(key string) string {
	v := m.Get(key)
	if !Truthy(v) {
		return ""
	}
	return Stringify(v)
}

// Block describes where a frontmatter block sits inside a document.
type Block struct {
	// Raw is the YAML text between the delimiters.
	Raw string
	// Open is the byte offset of the opening delimiter line.
	Open int
	// Close is the byte offset of the closing delimiter line. Content from
	// Close onward is the closing delimiter followed by the body.
	Close int
}

// Body returns the content after the closing delimiter line.
func (b Block) Body(content string) string {
	rest := content[b.Close:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

// Locate scans content line by line. The first line consisting of "---" opens
// the block and the next such line closes it.
func Locate(content string) (Block, error) {
	open, closing := -1, -1
	rawStart := 0

	offset := 0
	for offset <= len(content) {
		end := strings.IndexByte(content[offset:], '\n')
		var line string
		next := len(content) + 1
		if end >= 0 {
			line = content[offset : offset+end]
			next = offset + end + 1
		} else {
			line = content[offset:]
		}

		if isDelimiter(line) {
			if open < 0 {
				open = offset
				rawStart = next
			} else {
				closing = offset
				break
			}
		}

		if end < 0 {
			break
		}
		offset = next
	}

	if open < 0 {
		return Block{}, ErrMissingFrontmatter
	}
	if closing < 0 {
		return Block{}, ErrUnterminatedFrontmatter
	}

	return Block{
		Raw:   content[rawStart:closing],
		Open:  open,
		Close: closing,
	}, nil
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}
