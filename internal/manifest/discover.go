package manifest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// DefaultIgnore is used when the workspace has no ignore file of its own
var DefaultIgnore = []string{
	"old/**",
	"OLD_DO_NOT_USE/**",
	"update-excitare/**",
	"node_modules/**",
	"**/node_modules/**",
	".git/**",
}

// Discover returns every package.json below root, root included, in lexical
// walk order. Hidden directories are not entered. ignore holds doublestar
// globs relative to root; a glob ending in "/**" prunes whole directories.
func Discover(root string, ignore []string) ([]string, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern: %s", pattern)
		}
	}

	paths := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || prunesDirectory(ignore, rel) {
				log.Trace().Str("dir", rel).Msg("Skipping directory")
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() != FileName || isIgnored(ignore, rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover manifests in %s: %w", root, err)
	}

	log.Debug().Str("root", root).Int("count", len(paths)).Msg("Discovered manifests")
	return paths, nil
}

func isIgnored(ignore []string, rel string) bool {
	for _, pattern := range ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// prunesDirectory reports whether everything below dir is ignored
func prunesDirectory(ignore []string, dir string) bool {
	for _, pattern := range ignore {
		if !strings.HasSuffix(pattern, "/**") {
			continue
		}
		if ok, _ := doublestar.Match(pattern, dir+"/x"); ok {
			return true
		}
	}
	return false
}
