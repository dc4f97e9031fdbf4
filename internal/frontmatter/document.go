package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a frontmatter block parses to something other
// than a key/value mapping.
var ErrNotMapping = errors.New("frontmatter is not a mapping")

// Document is an editable frontmatter block that keeps key order and comments.
type Document struct {
	root *yaml.Node
}

// ParseDocument parses raw YAML. An empty block yields an empty document.
func ParseDocument(raw string) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Document{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return &Document{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	return &Document{root: root}, nil
}

// Value decodes the value stored under key.
func (d *Document) Value(key string) (any, bool) {
	node := d.lookup(key)
	if node == nil {
		return nil, false
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, true
	}
	return v, true
}

// Delete removes every entry for key and reports whether anything was removed.
func (d *Document) Delete(key string) bool {
	content := d.root.Content
	kept := content[:0]
	removed := false
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			removed = true
			continue
		}
		kept = append(kept, content[i], content[i+1])
	}
	d.root.Content = kept
	return removed
}

// SetString stores a plain string under key, appending the key when it is new.
func (d *Document) SetString(key, value string) {
	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if node := d.lookupIndex(key); node >= 0 {
		d.root.Content[node+1] = valueNode
		return
	}
	d.root.Content = append(d.root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		valueNode,
	)
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root.Content)/2)
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		keys = append(keys, d.root.Content[i].Value)
	}
	return keys
}

// Map decodes the document into a plain map.
func (d *Document) Map() (Map, error) {
	m := Map{}
	if err := d.root.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	return m, nil
}

// Normalize rewrites values that would otherwise serialize awkwardly. Null
// mapping values become "" and a list holding only an empty string is written
// inline with a single-quoted element.
func (d *Document) Normalize() {
	normalizeNode(d.root)
}

func normalizeNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			v := n.Content[i]
			if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
				v.Tag = "!!str"
				v.Value = ""
				v.Style = yaml.DoubleQuotedStyle
				continue
			}
			normalizeNode(v)
		}
	case yaml.SequenceNode:
		if isSingleEmptyString(n) {
			n.Style = yaml.FlowStyle
			item := n.Content[0]
			item.Tag = "!!str"
			item.Value = ""
			item.Style = yaml.SingleQuotedStyle
			return
		}
		for _, item := range n.Content {
			normalizeNode(item)
		}
	}
}

func isSingleEmptyString(n *yaml.Node) bool {
	if len(n.Content) != 1 {
		return false
	}
	item := n.Content[0]
	if item.Kind != yaml.ScalarNode {
		return false
	}
	switch item.ShortTag() {
	case "!!null":
		return true
	case "!!str":
		return item.Value == ""
	}
	return false
}

// Encode renders the document as YAML with two-space indentation.
func (d *Document) Encode() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	return buf.String(), nil
}

func (d *Document) lookup(key string) *yaml.Node {
	if i := d.lookupIndex(key); i >= 0 {
		return d.root.Content[i+1]
	}
	return nil
}

func (d *Document) lookupIndex(key string) int {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			return i
		}
	}
	return -1
}
