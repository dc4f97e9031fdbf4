// Package metadata reads and caches the frontmatter of notes in a vault.
package metadata

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Paintersrp/metamatter/internal/cache"
	"github.com/Paintersrp/metamatter/internal/frontmatter"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

const DefaultCacheSize = 512

type entry struct {
	modTime time.Time
	size    int64
	fm      frontmatter.Map
}

// Cache serves frontmatter for vault-relative paths. Entries are reused while
// the file's modification time and size are unchanged.
type Cache struct {
	vaultDir string
	entries  *cache.LRUCache[string, entry]
	md       goldmark.Markdown

	stat     func(string) (fs.FileInfo, error)
	readFile func(string) ([]byte, error)
}

func NewCache(vaultDir string, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		vaultDir: pathutil.NormalizePath(vaultDir),
		entries:  cache.NewLRUCache[string, entry](size),
		md:       newMarkdown(),
		stat:     os.Stat,
		readFile: os.ReadFile,
	}
}

// Frontmatter returns the parsed frontmatter of rel. Notes without a block
// yield an empty map. The returned map is shared and must not be modified.
func (c *Cache) Frontmatter(rel string) (frontmatter.Map, error) {
	abs, err := pathutil.Abs(c.vaultDir, rel)
	if err != nil {
		return nil, err
	}

	info, err := c.stat(abs)
	if err != nil {
		c.entries.Remove(rel)
		return nil, err
	}

	if cached, ok := c.entries.Get(rel); ok &&
		cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.fm, nil
	}

	content, err := c.readFile(abs)
	if err != nil {
		return nil, err
	}

	fm, err := parse(c.md, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	c.entries.Put(rel, entry{modTime: info.ModTime(), size: info.Size(), fm: fm})
	return fm, nil
}

// Invalidate drops any cached entry for rel.
func (c *Cache) Invalidate(rel string) {
	c.entries.Remove(rel)
}

// Parse extracts the frontmatter of a markdown document.
func Parse(content []byte) (frontmatter.Map, error) {
	return parse(newMarkdown(), content)
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(meta.Meta))
}

func parse(md goldmark.Markdown, content []byte) (frontmatter.Map, error) {
	pctx := parser.NewContext()
	md.Parser().Parse(text.NewReader(content), parser.WithContext(pctx))

	data, err := meta.TryGet(pctx)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if data == nil {
		return frontmatter.Map{}, nil
	}
	return frontmatter.Map(data), nil
}
