//go:build !windows

package ops

import (
	stderrors "errors"
	"fmt"
	"os"
	"syscall"

	"github.com/hpungsan/bottles/internal/errors"
)

// open opens path for the kind's direction. Writes create a new file and
// fail if one exists. O_NOFOLLOW refuses a symlink as the last component;
// the directories above it were already pinned by ValidatePath.
func (k FileKind) open(path string) (*os.File, error) {
	flag := syscall.O_RDONLY
	var perm uint32
	if k.Write {
		flag = syscall.O_WRONLY | syscall.O_CREAT | syscall.O_EXCL
		perm = 0600
	}

	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, perm)
	if err != nil {
		return nil, k.openError(path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

func (k FileKind) openError(path string, err error) error {
	switch {
	case stderrors.Is(err, syscall.ELOOP):
		return k.symlinkError()
	case !k.Write && stderrors.Is(err, syscall.ENOENT):
		return errors.NewFileNotFound(path)
	}
	return errors.NewInternal(fmt.Errorf("open %s file: %w", k.Name, err))
}
