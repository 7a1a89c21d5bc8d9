package filesystem

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
	"github.com/GriffinCanCode/filemanager/internal/shared/id"
)

// ArchiveEngine packs and unpacks archives next to their source.
type ArchiveEngine struct {
	ops *Ops
	log *zap.Logger
}

// NewArchiveEngine creates an engine that resolves paths through ops.
func NewArchiveEngine(ops *Ops) *ArchiveEngine {
	return &ArchiveEngine{ops: ops, log: ops.log}
}

// item is one archive member scheduled for writing.
type item struct {
	abs  string
	name string
	info fs.FileInfo
}

// Compress archives the entry at rel into a sibling "<base>.<format>" (or the
// first free "_N" variant) and returns the archive's name.
func (a *ArchiveEngine) Compress(rel, format string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	src, err := a.ops.resolve(rel)
	if err != nil {
		return "", err
	}
	if a.ops.sandbox.IsRoot(src) {
		return "", errs.New(errs.ValidationFailure, "Cannot archive the root directory")
	}
	if a.ops.protects(src) {
		return "", errReserved
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", errs.Wrap(errs.NotFound, "Source not found", err)
	}

	items, err := a.collect(src, info)
	if err != nil {
		return "", errs.Wrap(errs.IOFailure, "Failed to read source", err)
	}

	out, name, err := a.ops.claimFile(filepath.Dir(src), filepath.Base(src), f.Extension())
	if err != nil {
		return "", err
	}
	outPath := out.Name()
	job := id.NewJobID()

	if f.isTar() {
		err = writeTar(out, f, items)
	} else {
		err = writeZip(out, items)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outPath)
		a.log.Error("Compress failed", zap.String("job", job.String()), zapPath(rel), zap.Error(err))
		return "", errs.Wrap(errs.IOFailure, "Failed to create archive", err)
	}

	a.log.Info("Archive created",
		zap.String("job", job.String()),
		zapPath(rel),
		zap.String("archive", name),
		zap.Int("entries", len(items)))
	return name, nil
}

// collect lists the members for src: one entry for a file, or "<base>/" and
// its whole subtree for a directory. Symlinks and special files are skipped.
func (a *ArchiveEngine) collect(src string, info fs.FileInfo) ([]item, error) {
	base := filepath.Base(src)
	if !info.IsDir() {
		return []item{{abs: src, name: base, info: info}}, nil
	}

	var (
		mu    sync.Mutex
		items []item
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src || a.ops.isReserved(path) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !(d.IsDir() || d.Type().IsRegular()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		name := base + "/" + filepath.ToSlash(rel)
		if d.IsDir() {
			name += "/"
		}

		mu.Lock()
		items = append(items, item{abs: path, name: name, info: fi})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })
	return append([]item{{abs: src, name: base + "/", info: info}}, items...), nil
}

func writeZip(w io.Writer, items []item) error {
	zw := zip.NewWriter(w)

	for _, it := range items {
		hdr, err := zip.FileInfoHeader(it.info)
		if err != nil {
			return err
		}
		hdr.Name = it.name
		if it.info.IsDir() {
			hdr.Method = zip.Store
			if _, err := zw.CreateHeader(hdr); err != nil {
				return err
			}
			continue
		}

		hdr.Method = zip.Deflate
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if err := copyFrom(dst, it.abs); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeTar(w io.Writer, f Format, items []item) error {
	cw, err := f.compressor(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	for _, it := range items {
		hdr, err := tar.FileInfoHeader(it.info, "")
		if err != nil {
			return err
		}
		hdr.Name = it.name
		hdr.Uname, hdr.Gname = "", ""
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if it.info.Mode().IsRegular() {
			if err := copyFrom(tw, it.abs); err != nil {
				return err
			}
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

func copyFrom(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}

// Extract unpacks the archive at rel into a fresh sibling directory named
// after the archive without its extension.
func (a *ArchiveEngine) Extract(rel string) (ExtractResult, error) {
	var result ExtractResult

	abs, err := a.ops.resolve(rel)
	if err != nil {
		return result, err
	}
	if a.ops.isReserved(abs) {
		return result, errReserved
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return result, errs.New(errs.NotFound, "Archive not found")
	}

	format, base, ok := DetectFormat(filepath.Base(abs))
	if !ok {
		return result, errs.New(errs.UnsupportedFormat, "Unsupported format")
	}
	if base == "" {
		base = "archive"
	}

	// Open before creating anything so unreadable archives leave no trace.
	src, err := openArchive(abs, format)
	if err != nil {
		return result, errs.Wrap(errs.ArchiveCorrupt, "Archive is corrupt or unreadable", err)
	}
	defer src.Close()

	name, err := a.ops.claimDir(filepath.Dir(abs), base)
	if err != nil {
		return result, err
	}
	dest := filepath.Join(filepath.Dir(abs), name)
	result.Directory = name
	job := id.NewJobID()

	if err := src.extract(dest, &result); err != nil {
		_ = os.RemoveAll(dest)
		a.log.Error("Extract failed", zap.String("job", job.String()), zapPath(rel), zap.Error(err))

		var ioErr *writeError
		if errors.As(err, &ioErr) {
			return ExtractResult{}, errs.Wrap(errs.IOFailure, "Failed to extract archive", err)
		}
		return ExtractResult{}, errs.Wrap(errs.ArchiveCorrupt, "Archive is corrupt or unreadable", err)
	}

	a.log.Info("Archive extracted",
		zap.String("job", job.String()),
		zapPath(rel),
		zap.String("directory", name),
		zap.Int("files", result.Files),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
