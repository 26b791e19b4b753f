package task

import (
	"os"
	"path/filepath"
	"strings"
)

// parseCustomExts parses a comma-separated extension list ("png, jpg")
// into a normalized set with leading dots. Empty and blank entries are
// dropped; an empty result means the filter did not narrow anything.
func parseCustomExts(raw string) map[string]struct{} {
	exts := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		exts[p] = struct{}{}
	}
	return exts
}

// lowerExt returns the lowercased extension of filename, with dot.
func lowerExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ensureDir creates the output directory if it does not exist yet.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
