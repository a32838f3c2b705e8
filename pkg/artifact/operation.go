package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Operation is a file system change that can be validated and executed.
//
// Validate checks whether the operation would succeed without changing
// anything. force=true skips conflict checks (e.g., file already exists).
//
// Execute performs the change. Target names the file it touches so a
// transaction can restore it.
type Operation interface {
	Validate(ctx context.Context, fsys afero.Fs, force bool) error
	Execute(ctx context.Context, fsys afero.Fs) error
	Description() string
	Target() string
}

// WriteFileOp writes a file, creating parent directories as needed
type WriteFileOp struct {
	Path    string      // File path to create
	Content []byte      // File content (can be empty, must not be nil)
	Mode    fs.FileMode // File permissions (e.g., 0644)
}

func (op *WriteFileOp) Validate(ctx context.Context, fsys afero.Fs, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}

	info, err := fsys.Stat(op.Path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("path is a directory: %s", op.Path)
	case err == nil && !force:
		return fmt.Errorf("file already exists: %s", op.Path)
	}
	return nil
}

func (op *WriteFileOp) Execute(ctx context.Context, fsys afero.Fs) error {
	dir := filepath.Dir(op.Path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0o644
	}
	return afero.WriteFile(fsys, op.Path, op.Content, mode)
}

func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Write %s (%d bytes)", op.Path, len(op.Content))
}

func (op *WriteFileOp) Target() string { return op.Path }

// RemoveFileOp deletes a file. A missing file is not an error.
type RemoveFileOp struct {
	Path string
}

func (op *RemoveFileOp) Validate(ctx context.Context, fsys afero.Fs, force bool) error {
	info, err := fsys.Stat(op.Path)
	if err == nil && info.IsDir() {
		return fmt.Errorf("refusing to remove directory: %s", op.Path)
	}
	return nil
}

func (op *RemoveFileOp) Execute(ctx context.Context, fsys afero.Fs) error {
	if err := fsys.Remove(op.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (op *RemoveFileOp) Description() string {
	return fmt.Sprintf("Remove %s", op.Path)
}

func (op *RemoveFileOp) Target() string { return op.Path }

// RewriteFileOp applies an in-place edit to an existing file
type RewriteFileOp struct {
	Path    string
	Label   string // Short description of the edit
	Rewrite func([]byte) []byte
}

func (op *RewriteFileOp) Validate(ctx context.Context, fsys afero.Fs, force bool) error {
	if op.Rewrite == nil {
		return fmt.Errorf("no rewrite function for file: %s", op.Path)
	}
	return nil
}

func (op *RewriteFileOp) Execute(ctx context.Context, fsys afero.Fs) error {
	info, err := fsys.Stat(op.Path)
	if err != nil {
		return err
	}
	content, err := afero.ReadFile(fsys, op.Path)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, op.Path, op.Rewrite(content), info.Mode().Perm())
}

func (op *RewriteFileOp) Description() string {
	if op.Label == "" {
		return fmt.Sprintf("Fix %s", op.Path)
	}
	return fmt.Sprintf("Fix %s (%s)", op.Path, op.Label)
}

func (op *RewriteFileOp) Target() string { return op.Path }
