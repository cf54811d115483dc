package corpus

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Glob returns the regular files under dir whose slash-separated path
// relative to dir matches pattern, sorted. A "**" segment matches any
// number of directories, including none; other segments follow
// [filepath.Match].
func Glob(dir, pattern string) ([]string, error) {
	if err := errs.ValidateGlob(pattern); err != nil {
		return nil, err
	}
	segments := strings.Split(pattern, "/")

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if matchSegments(segments, strings.Split(filepath.ToSlash(rel), "/")) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "walk %s", dir)
	}
	slices.Sort(out)
	return out, nil
}

func matchSegments(pattern, path []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(path); i++ {
				if matchSegments(pattern[1:], path[i:]) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 {
			return false
		}
		if ok, _ := filepath.Match(pattern[0], path[0]); !ok {
			return false
		}
		pattern, path = pattern[1:], path[1:]
	}
	return len(path) == 0
}
