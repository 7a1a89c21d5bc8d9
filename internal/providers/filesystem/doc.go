// Package filesystem implements the file manager's operations on a sandboxed tree.
//
// This package is organized into:
//   - ops: Ops construction, path resolution and reserved-path policy
//   - directory: listing and create
//   - basic: read, write, upload and download
//   - operations: rename, move and recursive delete
//   - formats: archive format table and extension detection
//   - naming: "_N" collision numbering with exclusive create
//   - archives: compress and extract (zip, tar, tar.gz, tar.bz2, tar.zst, tar.xz)
//
// All operations:
//   - Take sandbox-relative paths and resolve them through paths.Sandbox
//   - Refuse the credential store and its lock file
//   - Return *errs.Error values whose message is safe to show the operator
//
// Creation is exclusive everywhere a name is claimed: create, compress and
// extract use O_EXCL or Mkdir, and rename and move use a no-replace rename
// where the platform offers one.
//
// Example Usage:
//
//	ops, err := filesystem.NewOps(sandbox, filesystem.WithReserved(store.Path()))
//	entries, err := ops.List("docs")
//	archives := filesystem.NewArchiveEngine(ops)
//	name, err := archives.Compress("docs", "tar.gz")
package filesystem
