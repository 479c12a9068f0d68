//go:build windows

package ops

import (
	"fmt"
	"os"

	"github.com/hpungsan/bottles/internal/errors"
)

// open opens path for the kind's direction. Windows has no O_NOFOLLOW, so
// the symlink check is repeated here just before the open; creating
// symlinks there needs elevated rights.
func (k FileKind) open(path string) (*os.File, error) {
	if isSymlink(path) {
		return nil, k.symlinkError()
	}

	var (
		f   *os.File
		err error
	)
	if k.Write {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		if !k.Write && os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(fmt.Errorf("open %s file: %w", k.Name, err))
	}
	return f, nil
}
