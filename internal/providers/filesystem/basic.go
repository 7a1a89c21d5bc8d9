package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

var errTooLarge = errors.New("size limit exceeded")

// Read returns the content of a regular UTF-8 text file no larger than the
// preview limit.
func (o *Ops) Read(rel string) (*Content, error) {
	abs, err := o.resolve(rel)
	if err != nil {
		return nil, err
	}
	if o.isReserved(abs) {
		return nil, errReserved
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, errs.New(errs.NotAFile, "Not a file")
	}
	if info.Size() > o.previewLimit {
		return nil, errs.New(errs.TooLarge, "File too large to preview")
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Failed to read file", err)
	}
	defer f.Close()

	// The file may grow between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, o.previewLimit+1))
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Failed to read file", err)
	}
	if int64(len(data)) > o.previewLimit {
		return nil, errs.New(errs.TooLarge, "File too large to preview")
	}
	// Content travels as a JSON string; anything else would not survive a
	// read and write round trip.
	if !utf8.Valid(data) {
		return nil, errs.New(errs.NotAFile, "Not a text file")
	}

	return &Content{Data: data, MIME: mimetype.Detect(data).String()}, nil
}

// Write replaces the file at rel with content, creating it if needed.
func (o *Ops) Write(rel string, content []byte) error {
	abs, err := o.resolve(rel)
	if err != nil {
		return err
	}
	if o.isReserved(abs) {
		return errReserved
	}
	if o.sandbox.IsRoot(abs) {
		return errs.New(errs.NotAFile, "Not a file")
	}

	target, perm, err := o.writeTarget(abs)
	if err != nil {
		return err
	}

	if _, err := writeAtomic(target, bytes.NewReader(content), perm, -1); err != nil {
		return errs.Wrap(errs.IOFailure, "Failed to write file", err)
	}
	return nil
}

// Upload stores r under the directory at rel using the base of name. size is
// the client-declared length, or -1 if unknown. Returns the stored name.
func (o *Ops) Upload(rel, name string, r io.Reader, size int64) (string, error) {
	base := baseName(name)
	if err := validateName(base, "file name"); err != nil {
		return "", errs.Wrap(errs.ValidationFailure, "Invalid file name", err)
	}
	if size > o.maxUpload {
		return "", errs.New(errs.TooLarge, "File too large")
	}

	dir, err := o.resolve(rel)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", errs.New(errs.NotADirectory, "Invalid directory")
	}

	abs, err := o.child(dir, base)
	if err != nil {
		return "", err
	}
	target, perm, err := o.writeTarget(abs)
	if err != nil {
		return "", err
	}

	src := &sourceReader{r: r}
	n, err := writeAtomic(target, src, perm, o.maxUpload)
	switch {
	case errors.Is(err, errTooLarge):
		return "", errs.New(errs.TooLarge, "File too large")
	case src.err != nil:
		return "", errs.Wrap(errs.TransferError, "Upload interrupted", src.err)
	case err != nil:
		return "", errs.Wrap(errs.IOFailure, "Failed to save file", err)
	}

	o.log.Debug("Stored upload", zapPath(o.sandbox.Rel(abs)), zap.Int64("bytes", n))
	return base, nil
}

// Open returns the regular file at rel ready for streaming.
func (o *Ops) Open(rel string) (*Download, error) {
	abs, err := o.resolve(rel)
	if err != nil {
		return nil, err
	}
	if o.isReserved(abs) {
		return nil, errReserved
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, errs.Wrap(errs.NotFound, "File not found", err)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, errs.New(errs.NotFound, "File not found")
	}

	return &Download{
		File:    f,
		Name:    filepath.Base(abs),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// writeTarget follows a symlinked target so writes replace the file it names
// rather than the link, and returns the mode to keep.
func (o *Ops) writeTarget(abs string) (string, fs.FileMode, error) {
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		// New file, or a dangling link inside the sandbox that gets replaced.
		return abs, filePerm, nil
	}
	if err != nil {
		return "", 0, errs.Wrap(errs.IOFailure, "Failed to write file", err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, errs.New(errs.NotAFile, "Not a file")
	}

	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", 0, errs.Wrap(errs.IOFailure, "Failed to write file", err)
	}
	if o.isReserved(target) {
		return "", 0, errReserved
	}
	return target, info.Mode().Perm(), nil
}

// writeAtomic copies r into a temporary sibling of target and renames it into
// place. A limit of -1 disables the size ceiling.
func writeAtomic(target string, r io.Reader, perm fs.FileMode, limit int64) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), tempPrefix+"*"+tempSuffix)
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	fail := func(err error) (int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, err
	}

	src := r
	if limit >= 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if err != nil {
		return fail(err)
	}
	if limit >= 0 && n > limit {
		return fail(errTooLarge)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return n, nil
}

// sourceReader remembers read-side failures so they can be told apart from
// disk errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}
