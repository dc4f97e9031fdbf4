package note

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// placeholders holds the values substituted into hook and editor command
// templates: {file}, {vault}, {relative}, {filename}, {cmd} and {editor}.
type placeholders struct {
	File     string
	Vault    string
	Relative string
	Filename string
	Editor   string
	BaseCmd  string
}

func newPlaceholders(path string) placeholders {
	vault := viper.GetString("vaultdir")
	relative, err := pathutil.VaultRelative(vault, path)
	if err != nil || vault == "" {
		relative = path
	}

	return placeholders{
		File:     path,
		Vault:    vault,
		Relative: relative,
		Filename: filepath.Base(path),
	}
}

func (p placeholders) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{file}", p.File,
		"{vault}", p.Vault,
		"{relative}", p.Relative,
		"{filename}", p.Filename,
		"{cmd}", p.BaseCmd,
		"{editor}", p.Editor,
	)
}

func (p placeholders) expand(value string) string {
	return p.replacer().Replace(value)
}

func (p placeholders) expandAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	r := p.replacer()
	expanded := make([]string, 0, len(values))
	for _, v := range values {
		expanded = append(expanded, r.Replace(v))
	}
	return expanded
}
