package fixture

import (
	"path/filepath"
	"strings"
)

// cleanName cleans a fixture name and rejects names that are empty or still
// climb out of their base directory after cleaning. Absolute names are
// accepted.
func cleanName(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	cleaned := filepath.Clean(name)
	segments := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for _, s := range segments {
		if s == ".." {
			return "", false
		}
	}
	return cleaned, true
}
