package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/logger"
	"github.com/hpungsan/bottles/internal/metrics"
	"github.com/hpungsan/bottles/internal/session"
)

// MaxImportBytes bounds the size of an import payload.
const MaxImportBytes = 10 << 20

// ImportInput contains parameters for the Import operation.
// Path and Text are mutually exclusive. Without a Path, Text is the payload,
// and an empty Text is rejected like any other malformed snapshot.
type ImportInput struct {
	Path string
	Text string
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported bool  `json:"imported"`
	State    State `json:"state"`
}

// Import replaces the board with a snapshot and returns to view mode.
// A payload that does not parse as a snapshot is not an error: the state is
// left unchanged and Imported is false.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	hasPath := input.Path != ""
	if hasPath && input.Text != "" {
		return nil, errors.NewInvalidRequest("path and text are mutually exclusive")
	}

	data := []byte(input.Text)
	if hasPath {
		var err error
		if data, err = readImportFile(input.Path, cfg); err != nil {
			return nil, err
		}
	}

	var parseErr error
	out, err := apply(ctx, database, "import", func(s session.Session) (session.Session, error) {
		next, err := s.Import(data)
		if err != nil {
			parseErr = err
			return s, nil
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordImport(parseErr == nil)
	if parseErr != nil {
		logger.FromContext(ctx).Debug("import rejected", "error", parseErr)
	}

	return &ImportOutput{Imported: parseErr == nil, State: out.State}, nil
}

// readImportFile validates and reads an import file.
func readImportFile(path string, cfg *config.Config) ([]byte, error) {
	if err := ValidatePath(path, SnapshotIn, cfg); err != nil {
		return nil, err
	}

	file, err := SnapshotIn.open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}
	return data, nil
}
