package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/session"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	ID string
}

// Remove deletes a bottle (edit mode). Unknown ids are a no-op.
func Remove(ctx context.Context, database *sql.DB, input RemoveInput) (*TransitionOutput, error) {
	if err := requireID("id", input.ID); err != nil {
		return nil, err
	}
	return apply(ctx, database, "remove", func(s session.Session) (session.Session, error) {
		return s.RemoveBottle(input.ID)
	})
}
