package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

const parentRef = ".."

// Sandbox resolves relative paths under a fixed root directory.
type Sandbox struct {
	root      string
	canonical string
	strict    bool
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithStrictSymlinks toggles symlink canonicalisation in Check.
func WithStrictSymlinks(strict bool) Option {
	return func(s *Sandbox) {
		s.strict = strict
	}
}

// New creates a sandbox rooted at root, which must be an existing directory.
func New(root string, opts ...Option) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalise root %s: %w", abs, err)
	}

	s := &Sandbox{
		root:      filepath.Clean(abs),
		canonical: canonical,
		strict:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute sandbox root.
func (s *Sandbox) Root() string {
	return s.root
}

// Strict reports whether Check canonicalises symlinks.
func (s *Sandbox) Strict() bool {
	return s.strict
}

// Resolve maps a client path to an absolute path under the root.
func (s *Sandbox) Resolve(rel string) string {
	sep := string(os.PathSeparator)
	cleaned := strings.NewReplacer("/", sep, `\`, sep).Replace(rel)
	cleaned = strings.ReplaceAll(cleaned, parentRef, "")

	abs := filepath.Join(s.root, cleaned)
	if !within(s.root, abs) {
		return s.root
	}
	return abs
}

// Rel returns the sandbox-relative, slash-separated form of abs. The root is "".
func (s *Sandbox) Rel(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// IsRoot reports whether abs is the sandbox root itself.
func (s *Sandbox) IsRoot(abs string) bool {
	return filepath.Clean(abs) == s.root
}

// Check verifies that abs, after following symlinks, still lies under the root.
// Missing trailing components are allowed; the deepest existing ancestor is checked.
func (s *Sandbox) Check(abs string) error {
	if !s.strict {
		return nil
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if _, err := filepath.EvalSymlinks(abs); errors.Is(err, fs.ErrNotExist) {
			return s.checkDangling(abs)
		}
	}

	p := abs
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			if !within(s.canonical, real) {
				return errs.New(errs.PathEscape, "Path escapes the sandbox root")
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.IOFailure, "Failed to resolve path", err)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return nil
		}
		p = parent
	}
}

// checkDangling validates a symlink whose target does not exist yet, where
// following it on write would create a file wherever it points.
func (s *Sandbox) checkDangling(link string) error {
	target, err := os.Readlink(link)
	if err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to resolve path", err)
	}
	if !filepath.IsAbs(target) {
		dir, err := filepath.EvalSymlinks(filepath.Dir(link))
		if err != nil {
			return errs.Wrap(errs.IOFailure, "Failed to resolve path", err)
		}
		target = filepath.Join(dir, target)
	}
	if !within(s.canonical, filepath.Clean(target)) && !within(s.root, filepath.Clean(target)) {
		return errs.New(errs.PathEscape, "Path escapes the sandbox root")
	}
	return nil
}

// Contains joins an untrusted entry name (as recorded inside an archive) under
// dir and rejects names that are absolute, carry a volume, or climb out of dir.
func Contains(dir, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if slashed == "" || path.IsAbs(slashed) || filepath.VolumeName(filepath.FromSlash(slashed)) != "" {
		return "", errs.New(errs.PathEscape, fmt.Sprintf("entry %q is not a relative path", name))
	}

	joined := filepath.Join(dir, filepath.FromSlash(slashed))
	rel, err := filepath.Rel(dir, joined)
	if err != nil || rel == "." || rel == parentRef || strings.HasPrefix(rel, parentRef+string(filepath.Separator)) {
		return "", errs.New(errs.PathEscape, fmt.Sprintf("entry %q escapes the destination", name))
	}
	return joined, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != parentRef && !strings.HasPrefix(rel, parentRef+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
