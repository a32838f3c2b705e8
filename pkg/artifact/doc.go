// Package artifact writes generated files through validated, transactional
// operations on an afero filesystem.
//
// Operations are validated up front and then applied in order. If any
// operation fails, every file touched so far is restored to its previous
// content (or removed if it did not exist):
//
//	tx := artifact.NewTransaction(afero.NewOsFs())
//	tx.Add(&artifact.WriteFileOp{Path: "out/a.go", Content: src, Mode: 0o644})
//	tx.Add(&artifact.RemoveFileOp{Path: "out/a_test.go"})
//	if err := tx.Commit(ctx); err != nil {
//	    return err // nothing is left half-written
//	}
//
// Execute wraps validation, dry-run reporting and a transaction.
package artifact
