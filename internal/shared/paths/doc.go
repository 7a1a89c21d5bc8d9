// Package paths confines client-supplied paths to a single sandbox root.
//
// Resolution is textual: separators are normalised to the host convention and
// every ".." token is stripped before the result is joined onto the root, so the
// output string is always lexically below the root and Resolve never fails.
//
// Textual containment does not see symbolic links. When strict mode is on
// (the default) callers additionally run Check, which canonicalises the deepest
// existing ancestor of a resolved path and rejects it if it leaves the
// canonical root.
//
// # Usage
//
//	sb, err := paths.New("/srv/files")
//	abs := sb.Resolve("docs/../../etc/passwd") // /srv/files/docs/etc/passwd
//	if err := sb.Check(abs); err != nil {
//	    // symlink inside the tree points elsewhere
//	}
//
// Archive entry names are untrusted too and go through Contains, which refuses
// anything that would land outside the extraction directory.
package paths
