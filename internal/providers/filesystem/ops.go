package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
	"github.com/GriffinCanCode/filemanager/internal/shared/paths"
	"github.com/GriffinCanCode/filemanager/internal/shared/utils"
)

const (
	DefaultMaxUploadSize int64 = 100 << 20
	DefaultPreviewLimit  int64 = 1 << 20

	dirPerm  = 0o755
	filePerm = 0o644

	// tempPrefix and tempSuffix frame in-flight writes; listings never
	// show them and client names may not start with tempPrefix.
	tempPrefix = ".fm-"
	tempSuffix = ".part"
)

var errReserved = errs.New(errs.PathEscape, "Access denied")

// Ops performs file operations inside a sandbox.
type Ops struct {
	sandbox      *paths.Sandbox
	reserved     map[string]struct{}
	hidden       []string
	maxUpload    int64
	previewLimit int64
	log          *zap.Logger
}

// Option configures Ops.
type Option func(*Ops)

// WithReserved marks absolute paths that must never be listed or touched.
func WithReserved(abs ...string) Option {
	return func(o *Ops) {
		for _, p := range abs {
			if p != "" {
				o.reserved[filepath.Clean(p)] = struct{}{}
			}
		}
	}
}

// WithHidden hides listing entries whose name or relative path matches any
// doublestar pattern.
func WithHidden(patterns ...string) Option {
	return func(o *Ops) {
		o.hidden = append(o.hidden, patterns...)
	}
}

// WithMaxUploadSize sets the upload ceiling in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(o *Ops) {
		o.maxUpload = n
	}
}

// WithPreviewLimit sets the largest file Read will return.
func WithPreviewLimit(n int64) Option {
	return func(o *Ops) {
		o.previewLimit = n
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Ops) {
		o.log = log
	}
}

// NewOps creates file operations over sandbox.
func NewOps(sandbox *paths.Sandbox, opts ...Option) (*Ops, error) {
	o := &Ops{
		sandbox:      sandbox,
		reserved:     make(map[string]struct{}),
		maxUpload:    DefaultMaxUploadSize,
		previewLimit: DefaultPreviewLimit,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	for _, p := range o.hidden {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid hidden pattern %q", p)
		}
	}
	if o.maxUpload <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", o.maxUpload)
	}
	if o.previewLimit <= 0 {
		return nil, fmt.Errorf("preview limit must be positive, got %d", o.previewLimit)
	}
	return o, nil
}

// Sandbox returns the sandbox the operations resolve against.
func (o *Ops) Sandbox() *paths.Sandbox {
	return o.sandbox
}

// MaxUploadSize returns the upload ceiling in bytes.
func (o *Ops) MaxUploadSize() int64 {
	return o.maxUpload
}

// resolve maps rel into the sandbox and enforces symlink containment.
func (o *Ops) resolve(rel string) (string, error) {
	abs := o.sandbox.Resolve(rel)
	if err := o.sandbox.Check(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// child joins a validated base name onto dir and re-checks containment.
func (o *Ops) child(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if o.isReserved(target) {
		return "", errReserved
	}
	if err := o.sandbox.Check(target); err != nil {
		return "", err
	}
	return target, nil
}

func (o *Ops) isReserved(abs string) bool {
	_, ok := o.reserved[filepath.Clean(abs)]
	return ok
}

// protects reports whether abs is reserved or an ancestor of a reserved path.
func (o *Ops) protects(abs string) bool {
	abs = filepath.Clean(abs)
	for p := range o.reserved {
		if p == abs {
			return true
		}
		if rel, err := filepath.Rel(abs, p); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

func (o *Ops) isHidden(name, rel string) bool {
	if strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix) {
		return true
	}
	for _, p := range o.hidden {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// baseName reduces a client-supplied name to its final component, treating
// both separators alike.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// validateName checks a client-supplied base name. Names in the temp file
// namespace are refused so they can never collide with in-flight writes.
func validateName(name, field string) error {
	if err := utils.ValidateName(name, field); err != nil {
		return err
	}
	if strings.HasPrefix(name, tempPrefix) {
		return fmt.Errorf("%s must not start with %q", field, tempPrefix)
	}
	return nil
}

func zapPath(rel string) zap.Field {
	return zap.String("path", rel)
}
