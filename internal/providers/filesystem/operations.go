package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// Rename gives the entry at rel the base name of newName within the same
// parent directory. The target must not exist.
func (o *Ops) Rename(rel, newName string) error {
	abs, err := o.resolve(rel)
	if err != nil {
		return err
	}
	if o.sandbox.IsRoot(abs) {
		return errs.New(errs.ValidationFailure, "Cannot rename the root directory")
	}
	if o.protects(abs) {
		return errReserved
	}
	if _, err := os.Lstat(abs); err != nil {
		return errs.Wrap(errs.NotFound, "File not found", err)
	}

	base := baseName(newName)
	if err := validateName(base, "new name"); err != nil {
		return errs.Wrap(errs.ValidationFailure, "Invalid name", err)
	}

	target, err := o.child(filepath.Dir(abs), base)
	if err != nil {
		return err
	}

	if err := renameNoReplace(abs, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.Wrap(errs.AlreadyExists, "Target already exists", err)
		}
		return errs.Wrap(errs.IOFailure, "Failed to rename", err)
	}
	return nil
}

// Delete removes the entry at rel. Directories are removed depth-first and
// best-effort: a failure leaves the rest of the tree in place and the report
// says how much went.
func (o *Ops) Delete(rel string) (DeleteReport, error) {
	var report DeleteReport

	abs, err := o.resolve(rel)
	if err != nil {
		return report, err
	}
	if o.sandbox.IsRoot(abs) {
		return report, errs.New(errs.ValidationFailure, "Cannot delete the root directory")
	}
	if o.isReserved(abs) {
		return report, errReserved
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return report, errs.Wrap(errs.NotFound, "File not found", err)
	}

	if !info.IsDir() {
		if err := os.Remove(abs); err != nil {
			report.Remaining = 1
			return report, errs.Wrap(errs.IOFailure, "Failed to delete file", err)
		}
		report.Removed = 1
		return report, nil
	}

	if _, first := o.removeTree(abs, &report); first != nil {
		o.log.Warn("Partial delete",
			zapPath(o.sandbox.Rel(abs)),
			zap.Int("removed", report.Removed),
			zap.Int("remaining", report.Remaining),
			zap.Error(first))
		return report, errs.Wrap(errs.IOFailure, "Failed to delete directory", first)
	}
	return report, nil
}

// removeTree deletes dir post-order and returns the first failure. Reserved
// entries are kept without failing; they and every ancestor holding them are
// counted as remaining.
func (o *Ops) removeTree(dir string, report *DeleteReport) (kept bool, err error) {
	var first error
	keep := func(err error) {
		report.Remaining++
		if first == nil {
			first = err
		}
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		keep(err)
		return true, first
	}

	for _, d := range dirents {
		child := filepath.Join(dir, d.Name())
		if o.isReserved(child) {
			report.Remaining++
			kept = true
			continue
		}
		if d.IsDir() {
			childKept, err := o.removeTree(child, report)
			if err != nil && first == nil {
				first = err
			}
			kept = kept || childKept
			continue
		}
		if err := os.Remove(child); err != nil {
			keep(err)
			continue
		}
		report.Removed++
	}

	if first != nil || kept {
		// The directory cannot be empty; count it as surviving.
		report.Remaining++
		return true, first
	}
	if err := os.Remove(dir); err != nil {
		keep(err)
		return true, first
	}
	report.Removed++
	return false, nil
}

// Move relocates each source into the destination directory. Items are
// independent: one failure is recorded and the rest still run.
func (o *Ops) Move(sources []string, destination string) (MoveResult, error) {
	var result MoveResult

	dest, err := o.resolve(destination)
	if err != nil {
		return result, err
	}
	if info, err := os.Stat(dest); err != nil || !info.IsDir() || o.isReserved(dest) {
		return result, errs.New(errs.NotADirectory, "Invalid destination")
	}

	for _, rel := range sources {
		if err := o.moveOne(rel, dest); err != nil {
			result.Skipped++
			if result.FirstError == "" {
				result.FirstError = errs.Message(err)
			}
			o.log.Debug("Move skipped", zapPath(rel), zap.Error(err))
			continue
		}
		result.Moved++
	}
	return result, nil
}

func (o *Ops) moveOne(rel, dest string) error {
	if strings.TrimSpace(rel) == "" {
		return errs.New(errs.ValidationFailure, "Empty path")
	}

	src, err := o.resolve(rel)
	if err != nil {
		return err
	}
	if o.sandbox.IsRoot(src) {
		return errs.New(errs.ValidationFailure, "Cannot move the root directory")
	}
	if o.protects(src) {
		return errReserved
	}
	if _, err := os.Lstat(src); err != nil {
		return errs.Wrap(errs.NotFound, "Source not found", err)
	}
	if inside, err := filepath.Rel(src, dest); err == nil && !strings.HasPrefix(inside, "..") {
		return errs.New(errs.ValidationFailure, "Cannot move a directory into itself")
	}

	target, err := o.child(dest, filepath.Base(src))
	if err != nil {
		return err
	}
	if err := renameNoReplace(src, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.Wrap(errs.AlreadyExists, "Target already exists", err)
		}
		return errs.Wrap(errs.IOFailure, "Failed to move", err)
	}
	return nil
}
