package pathutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideVault is returned when a vault-relative path would escape the vault.
var ErrOutsideVault = errors.New("path escapes the vault directory")

// NormalizePath converts Windows-style separators to the current platform's separator
// and cleans the resulting path.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// VaultRelative returns the path to target relative to the provided vault directory.
// The returned path always uses forward slashes.
func VaultRelative(vaultDir, target string) (string, error) {
	base := NormalizePath(vaultDir)
	cleanedTarget := NormalizePath(target)

	rel, err := filepath.Rel(base, cleanedTarget)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// Abs joins a forward-slash vault-relative path onto the vault directory.
// Paths that climb out of the vault are rejected.
func Abs(vaultDir, rel string) (string, error) {
	cleaned := CleanRelative(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrOutsideVault
	}
	if cleaned == "." {
		return NormalizePath(vaultDir), nil
	}
	return filepath.Join(NormalizePath(vaultDir), filepath.FromSlash(cleaned)), nil
}

// CleanRelative normalizes a vault-relative path to forward slashes without a
// leading slash. The vault root is ".".
func CleanRelative(rel string) string {
	replaced := strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	if replaced == "" {
		return "."
	}
	return path.Clean(replaced)
}

// HasFolderPrefix reports whether rel starts with folder. It is a plain string
// prefix test: "Templates2/x.md" matches the folder "Templates".
func HasFolderPrefix(rel, folder string) bool {
	return strings.HasPrefix(filepath.ToSlash(rel), filepath.ToSlash(folder))
}

// SiblingPath returns the path of a file named name placed next to rel.
// Files at the vault root stay at the root.
func SiblingPath(rel, name string) string {
	dir := path.Dir(filepath.ToSlash(rel))
	if dir == "." || dir == "/" {
		return name
	}
	return dir + "/" + name
}
