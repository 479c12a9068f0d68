package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
)

// FileKind describes a file the board reads or writes outside the database.
type FileKind struct {
	Name        string // used in error messages
	Ext         string // required extension, matched case-insensitively
	DefaultName string // file name used in the exports dir when no path is given
	Write       bool
}

// The files the board exchanges with the filesystem.
var (
	SnapshotIn  = FileKind{Name: "snapshot", Ext: ".json", DefaultName: bottle.ExportFilename}
	SnapshotOut = FileKind{Name: "snapshot", Ext: ".json", DefaultName: bottle.ExportFilename, Write: true}
	ReportOut   = FileKind{Name: "report", Ext: ".xlsx", DefaultName: ReportFilename, Write: true}
)

// ResolvePath returns the path to use for kind. An empty path on a write
// falls back to ~/.bottles/exports/<DefaultName>. Every path, defaulted or
// not, goes through ValidatePath.
func ResolvePath(path string, kind FileKind, cfg *config.Config) (string, error) {
	if path == "" && kind.Write {
		dir, err := DefaultExportsDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, kind.DefaultName)
	}
	if err := ValidatePath(path, kind, cfg); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks a user-supplied file path before it is opened.
//
// Files must sit directly in ~/.bottles/exports or one of allowed_paths;
// subdirectories are refused so no intermediate component can be swapped for
// a symlink between this check and the O_NOFOLLOW open. allow_unsafe_paths
// lifts the directory rule only. Symlinked files are always refused.
func ValidatePath(path string, kind FileKind, cfg *config.Config) error {
	absPath, err := checkShape(path, kind)
	if err != nil {
		return err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkLocation(absPath, cfg); err != nil {
			return err
		}
	}

	return checkTarget(path, absPath, kind)
}

// checkShape validates the path text and returns it made absolute.
func checkShape(path string, kind FileKind) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !strings.EqualFold(filepath.Ext(cleaned), kind.Ext) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s path must have %s extension", kind.Name, kind.Ext))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return absPath, nil
}

// checkLocation requires absPath's parent to be one of the allowed dirs and
// not itself a symlink.
func checkLocation(absPath string, cfg *config.Config) error {
	allowedDirs, err := allowedDirs(cfg)
	if err != nil {
		return err
	}

	parentDir := filepath.Clean(filepath.Dir(absPath))
	if !slices.Contains(allowedDirs, parentDir) {
		return errors.NewInvalidRequest(
			fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
				allowedDirs))
	}

	if isSymlink(parentDir) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// checkTarget looks at the file itself: reads need it to exist, and neither
// reads nor writes may go through a symlink.
func checkTarget(path, absPath string, kind FileKind) error {
	if !kind.Write {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(absPath) {
		return kind.symlinkError()
	}
	return nil
}

// symlinkError is returned whenever the kind's file turns out to be a symlink.
func (k FileKind) symlinkError() error {
	return errors.NewInvalidRequest(fmt.Sprintf("%s path is a symlink", k.Name))
}

// allowedDirs returns the exports dir plus every absolute allowed_paths
// entry, cleaned. Entries that are symlinks are resolved so they match the
// real parent of a file inside them.
func allowedDirs(cfg *config.Config) ([]string, error) {
	defaultDir, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{defaultDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, p)
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, filepath.Clean(abs))
	}
	return result, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// BaseDir returns the bottles home directory (~/.bottles).
func BaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".bottles"), nil
}

// DefaultExportsDir returns the default exports directory (~/.bottles/exports).
func DefaultExportsDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "exports"), nil
}

// containsTraversal reports whether any component of path is "..", splitting
// on both the OS separator and '/'.
func containsTraversal(path string) bool {
	split := func(r rune) bool { return r == '/' || r == filepath.Separator }
	return slices.Contains(strings.FieldsFunc(path, split), "..")
}
