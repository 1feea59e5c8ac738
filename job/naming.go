package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"animvid/models"
	"animvid/utils"
)

// CombinedStem names the single output of a combine job.
const CombinedStem = "combined"

const maxNameAttempts = 8

var newSuffix = utils.ShortSuffix

// Stem is the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath returns dir/{stem}_{6 hex}{ext} for a name not yet taken.
func OutputPath(dir, stem string, format models.OutputFormat) (string, error) {
	for range maxNameAttempts {
		suffix, err := newSuffix()
		if err != nil {
			return "", fmt.Errorf("generate output suffix: %w", err)
		}
		p := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, suffix, format))
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
	}
	return "", fmt.Errorf("no free output name for %s in %s after %d attempts", stem, dir, maxNameAttempts)
}
