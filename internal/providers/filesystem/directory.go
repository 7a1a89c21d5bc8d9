package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// Create kinds accepted by Create.
const (
	KindDirectory = "directory"
	KindFile      = "file"
)

// List returns the entries of the directory at rel, sorted by name. Below the
// root the first entry is ".." pointing at the parent.
func (o *Ops) List(rel string) ([]Entry, error) {
	abs, err := o.resolve(rel)
	if err != nil {
		return nil, err
	}
	if o.isReserved(abs) {
		return nil, errs.New(errs.NotADirectory, "Invalid directory")
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errs.New(errs.NotADirectory, "Invalid directory")
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, errs.Wrap(errs.IOFailure, "Failed to read directory", err)
	}

	entries := make([]Entry, 0, len(dirents)+1)
	if !o.sandbox.IsRoot(abs) {
		parent := filepath.Dir(abs)
		entry := o.entry(parent, "..", o.sandbox.Rel(parent))
		entry.Type = TypeDirectory
		entry.Size = 0
		entries = append(entries, entry)
	}

	for _, d := range dirents {
		child := filepath.Join(abs, d.Name())
		childRel := o.sandbox.Rel(child)
		if o.isReserved(child) || o.isHidden(d.Name(), childRel) {
			continue
		}
		entries = append(entries, o.entry(child, d.Name(), childRel))
	}
	return entries, nil
}

func (o *Ops) entry(abs, name, rel string) Entry {
	e := Entry{
		Name: name,
		Path: rel,
		Type: TypeFile,
	}

	var (
		info os.FileInfo
		err  error
	)
	escapes := o.sandbox.Check(abs) != nil
	if !escapes {
		info, err = os.Stat(abs)
	}
	if escapes || err != nil {
		// Escaping or dangling link: describe the link itself and nothing
		// it points at.
		if info, err = os.Lstat(abs); err == nil {
			e.Modified = info.ModTime().Unix()
		}
		return e
	}

	if info.IsDir() {
		e.Type = TypeDirectory
	} else if info.Mode().IsRegular() {
		e.Size = info.Size()
	}
	e.Modified = info.ModTime().Unix()
	e.Readable, e.Writable = access(abs, info)
	return e
}

// Create makes an empty file or directory named name inside the directory at
// rel. An empty kind means directory.
func (o *Ops) Create(rel, name, kind string) error {
	switch kind {
	case "", KindDirectory, KindFile:
	default:
		return errs.New(errs.ValidationFailure, "Invalid type")
	}

	base := baseName(name)
	if err := validateName(base, "name"); err != nil {
		return errs.Wrap(errs.ValidationFailure, "Invalid name", err)
	}

	dir, err := o.resolve(rel)
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errs.New(errs.NotADirectory, "Invalid directory")
	}

	target, err := o.child(dir, base)
	if err != nil {
		return err
	}

	if kind == KindFile {
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err != nil {
			return createError(err, "Failed to create file")
		}
		if err := f.Close(); err != nil {
			return errs.Wrap(errs.IOFailure, "Failed to create file", err)
		}
	} else if err := os.Mkdir(target, dirPerm); err != nil {
		return createError(err, "Failed to create directory")
	}

	o.log.Debug("Created entry", zapPath(path.Join(o.sandbox.Rel(dir), base)))
	return nil
}

func createError(err error, msg string) error {
	if errors.Is(err, fs.ErrExist) {
		return errs.Wrap(errs.AlreadyExists, "Already exists", err)
	}
	return errs.Wrap(errs.IOFailure, msg, err)
}
