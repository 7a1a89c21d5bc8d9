package filesystem

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/GriffinCanCode/filemanager/internal/shared/paths"
)

// archiveSource is an opened archive ready to unpack.
type archiveSource interface {
	extract(dest string, result *ExtractResult) error
	Close() error
}

// writeError marks failures on the destination side of an extraction.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func openArchive(abs string, f Format) (archiveSource, error) {
	if !f.isTar() {
		r, err := zip.OpenReader(abs)
		if err != nil {
			return nil, err
		}
		return &zipSource{r: r}, nil
	}

	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	dec, err := f.decompressor(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	src := &tarSource{file: file, dec: dec, tr: tar.NewReader(dec)}
	src.first, err = src.tr.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		src.Close()
		return nil, err
	}
	return src, nil
}

type zipSource struct {
	r *zip.ReadCloser
}

func (z *zipSource) Close() error { return z.r.Close() }

func (z *zipSource) extract(dest string, result *ExtractResult) error {
	for _, f := range z.r.File {
		target, ok := entryTarget(dest, f.Name, result)
		if !ok {
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := os.MkdirAll(target, dirPerm); err != nil {
				return &writeError{err}
			}
			result.Dirs++
		case mode.IsRegular():
			rc, err := f.Open()
			if err != nil {
				return err
			}
			err = writeEntry(target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
			result.Files++
		default:
			result.Skipped++
		}
	}
	return nil
}

type tarSource struct {
	file  *os.File
	dec   io.ReadCloser
	tr    *tar.Reader
	first *tar.Header
}

func (t *tarSource) Close() error {
	derr := t.dec.Close()
	if err := t.file.Close(); err != nil {
		return err
	}
	return derr
}

func (t *tarSource) extract(dest string, result *ExtractResult) error {
	for hdr := t.first; hdr != nil; {
		if hdr.Typeflag != tar.TypeXGlobalHeader {
			if err := t.entry(dest, hdr, result); err != nil {
				return err
			}
		}

		next, err := t.tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		hdr = next
	}
	return nil
}

func (t *tarSource) entry(dest string, hdr *tar.Header, result *ExtractResult) error {
	target, ok := entryTarget(dest, hdr.Name, result)
	if !ok {
		return nil
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, dirPerm); err != nil {
			return &writeError{err}
		}
		result.Dirs++
	case tar.TypeReg:
		if err := writeEntry(target, t.tr, fs.FileMode(hdr.Mode).Perm()); err != nil {
			return err
		}
		result.Files++
	default:
		// Links, devices and fifos are never materialised.
		result.Skipped++
	}
	return nil
}

// entryTarget maps an entry name into dest. Names that only denote the
// archive root are ignored; names that escape are counted as skipped.
func entryTarget(dest, name string, result *ExtractResult) (string, bool) {
	if path.Clean(strings.ReplaceAll(name, `\`, "/")) == "." {
		return "", false
	}
	target, err := paths.Contains(dest, name)
	if err != nil {
		result.Skipped++
		return "", false
	}
	return target, true
}

func writeEntry(target string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return &writeError{err}
	}
	if perm == 0 {
		perm = filePerm
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o600)
	if err != nil {
		return &writeError{err}
	}

	src := &sourceReader{r: r}
	_, err = io.Copy(f, src)
	cerr := f.Close()
	switch {
	case src.err != nil:
		return src.err
	case err != nil:
		return &writeError{err}
	case cerr != nil:
		return &writeError{cerr}
	}
	return nil
}
