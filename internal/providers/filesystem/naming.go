package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// maxCollisions bounds the "_N" scan.
const maxCollisions = 10000

// candidate returns "<base><suffix>" for n == 0 and "<base>_<n><suffix>" after.
func candidate(base, suffix string, n int) string {
	if n == 0 {
		return base + suffix
	}
	return fmt.Sprintf("%s_%d%s", base, n, suffix)
}

// claimFile exclusively creates the first free candidate name in dir.
func (o *Ops) claimFile(dir, base, suffix string) (*os.File, string, error) {
	for n := 0; n < maxCollisions; n++ {
		name := candidate(base, suffix, n)
		target := filepath.Join(dir, name)
		if o.isReserved(target) {
			continue
		}
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", errs.Wrap(errs.IOFailure, "Failed to create archive", err)
		}
	}
	return nil, "", errs.New(errs.AlreadyExists, "No free archive name")
}

// claimDir exclusively creates the first free candidate directory in dir.
func (o *Ops) claimDir(dir, base string) (string, error) {
	for n := 0; n < maxCollisions; n++ {
		name := candidate(base, "", n)
		target := filepath.Join(dir, name)
		if o.isReserved(target) {
			continue
		}
		err := os.Mkdir(target, dirPerm)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", errs.Wrap(errs.IOFailure, "Failed to create directory", err)
		}
	}
	return "", errs.New(errs.AlreadyExists, "No free directory name")
}
