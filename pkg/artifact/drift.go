package artifact

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
)

// Drift returns a unified diff between the file at path and want.
// It returns "" when they match; a missing file diffs against empty content.
func Drift(fsys afero.Fs, path string, want []byte) (string, error) {
	have, err := afero.ReadFile(fsys, path)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if string(have) == string(want) {
		return "", nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(have)),
		B:        difflib.SplitLines(string(want)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", path, err)
	}
	return diff, nil
}
