package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/session"
)

// ClickInput contains parameters for the Click operation.
type ClickInput struct {
	ID        string
	Direction bottle.Direction // default: forward
}

// Click moves a bottle's level one division. It is a no-op in edit mode and
// for unknown ids.
func Click(ctx context.Context, database *sql.DB, input ClickInput) (*TransitionOutput, error) {
	if err := requireID("id", input.ID); err != nil {
		return nil, err
	}
	if input.Direction == "" {
		input.Direction = bottle.Forward
	}
	if !input.Direction.Valid() {
		return nil, errors.NewInvalidRequest("direction must be one of: forward, back")
	}

	return apply(ctx, database, "click", func(s session.Session) (session.Session, error) {
		return s.Click(input.ID, input.Direction), nil
	})
}
