package artifact

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// Transaction applies operations in order and undoes them all if one fails
type Transaction struct {
	fs         afero.Fs
	operations []Operation
	committed  bool
}

// snapshot is a file's state before the transaction touched it
type snapshot struct {
	path    string
	existed bool
	content []byte
	mode    fs.FileMode
}

// NewTransaction creates a transaction over fsys
func NewTransaction(fsys afero.Fs) *Transaction {
	return &Transaction{
		fs:         fsys,
		operations: make([]Operation, 0),
	}
}

// Add stages operations (doesn't execute yet)
func (t *Transaction) Add(ops ...Operation) {
	t.operations = append(t.operations, ops...)
}

// AddFile stages a file write
func (t *Transaction) AddFile(path string, content []byte, mode fs.FileMode) {
	t.Add(&WriteFileOp{Path: path, Content: content, Mode: mode})
}

// Operations returns the staged operations
func (t *Transaction) Operations() []Operation {
	return append([]Operation(nil), t.operations...)
}

// Paths returns the distinct files the staged operations touch, in order
func (t *Transaction) Paths() []string {
	seen := make(map[string]bool, len(t.operations))
	paths := make([]string, 0, len(t.operations))
	for _, op := range t.operations {
		if !seen[op.Target()] {
			seen[op.Target()] = true
			paths = append(paths, op.Target())
		}
	}
	return paths
}

// Commit executes all staged operations.
// If any operation fails, files already touched are restored.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}

	var touched []snapshot
	seen := make(map[string]bool)

	for _, op := range t.operations {
		if err := ctx.Err(); err != nil {
			t.rollback(touched)
			return err
		}

		if !seen[op.Target()] {
			seen[op.Target()] = true
			touched = append(touched, t.snapshot(op.Target()))
		}

		if err := op.Execute(ctx, t.fs); err != nil {
			t.rollback(touched)
			return fmt.Errorf("%s: %w", op.Description(), err)
		}
	}

	t.committed = true
	return nil
}

func (t *Transaction) snapshot(path string) snapshot {
	s := snapshot{path: path}
	info, err := t.fs.Stat(path)
	if err != nil || info.IsDir() {
		return s
	}
	content, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return s
	}
	s.existed = true
	s.content = content
	s.mode = info.Mode().Perm()
	return s
}

// rollback restores snapshots in reverse order
func (t *Transaction) rollback(touched []snapshot) {
	for i := len(touched) - 1; i >= 0; i-- {
		s := touched[i]
		if s.existed {
			_ = afero.WriteFile(t.fs, s.path, s.content, s.mode) // Best effort
		} else {
			_ = t.fs.Remove(s.path) // Best effort, ignore errors
		}
	}
}
