package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/session"
)

// SelectInput contains parameters for the Select operation.
type SelectInput struct {
	ID string
}

// Select toggles the bottle being edited (edit mode).
func Select(ctx context.Context, database *sql.DB, input SelectInput) (*TransitionOutput, error) {
	if err := requireID("id", input.ID); err != nil {
		return nil, err
	}
	return apply(ctx, database, "select", func(s session.Session) (session.Session, error) {
		return s.Select(input.ID)
	})
}

// ToggleEdit switches between view and edit mode.
func ToggleEdit(ctx context.Context, database *sql.DB) (*TransitionOutput, error) {
	return apply(ctx, database, "mode", func(s session.Session) (session.Session, error) {
		return s.ToggleEdit()
	})
}
