package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/session"
)

// ResetInput contains parameters for the Reset operation.
type ResetInput struct {
	Defaults bottle.Collection
}

// Reset restores every bottle's level from the defaults. Allowed in any mode.
func Reset(ctx context.Context, database *sql.DB, input ResetInput) (*TransitionOutput, error) {
	return apply(ctx, database, "reset", func(s session.Session) (session.Session, error) {
		return s.Reset(input.Defaults), nil
	})
}
