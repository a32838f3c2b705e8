package artifact

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Glob walks root and returns files whose base name matches pattern.
// A missing root yields no matches.
func Glob(fsys afero.Fs, root, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	if ok, err := afero.DirExists(fsys, root); err != nil || !ok {
		return nil, err
	}

	var matches []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, info.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}
