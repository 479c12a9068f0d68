package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/db"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/session"
)

// SeedInput contains parameters for the Seed operation.
type SeedInput struct {
	Defaults    bottle.Collection
	EditEnabled bool
}

// SeedOutput contains the result of the Seed operation.
type SeedOutput struct {
	Seeded bool  `json:"seeded"`
	State  State `json:"state"`
}

// Seed creates the session from the defaults on first run. On later runs the
// stored board is kept and only the deployment's edit flag is refreshed; when
// editing has been turned off the session is forced back to view mode.
func Seed(ctx context.Context, database *sql.DB, input SeedInput) (*SeedOutput, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("seed")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	exists, err := db.HasSession(ctx, tx)
	if err != nil {
		return nil, err
	}

	var s session.Session
	if exists {
		s, err = db.LoadSession(ctx, tx)
		if err != nil {
			return nil, err
		}
		s.EditEnabled = input.EditEnabled
		if !s.EditEnabled {
			s.Mode = session.ModeView
			s.EditingTarget = ""
		}
	} else {
		s = session.New(input.Defaults, input.EditEnabled)
	}

	if err := db.SaveSession(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to commit: %w", err))
	}

	return &SeedOutput{Seeded: !exists, State: NewState(s)}, nil
}
