package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/db"
	"github.com/hpungsan/bottles/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.bottles/exports/bottles-export.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportTextOutput contains the snapshot as text.
type ExportTextOutput struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ExportText serializes the board without touching the filesystem.
func ExportText(ctx context.Context, database *sql.DB) (*ExportTextOutput, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("export")
	}
	s, err := db.LoadSession(ctx, database)
	if err != nil {
		return nil, err
	}
	data, err := s.Export()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ExportTextOutput{Filename: bottle.ExportFilename, Text: string(data)}, nil
}

// Export writes the board snapshot to a file.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	exportPath, err := ResolvePath(input.Path, SnapshotOut, cfg)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, errors.NewCancelled("export")
	}
	s, err := db.LoadSession(ctx, database)
	if err != nil {
		return nil, err
	}
	data, err := s.Export()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	err = writeFileAtomic(exportPath, SnapshotOut, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(s.Board.Bottles),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// writeFileAtomic writes kind's file to a temp file next to path and
// renames it into place, so an existing file survives any failure.
func writeFileAtomic(path string, kind FileKind, write func(io.Writer) error) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := kind.open(tempPath)
	if err != nil {
		return err
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := write(file); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// Check if destination is a symlink (os.Rename would follow it)
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return kind.symlinkError()
	}

	// On Windows, os.Rename fails if the destination exists. Fail safely
	// rather than delete-then-rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest(fmt.Sprintf("%s destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)", kind.Name))
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
