package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/session"
)

// StepInput contains parameters for the Step operation.
type StepInput struct {
	ID    string
	Delta int // whole steps, negative to lower
}

// Step adjusts a bottle by whole steps (edit mode).
func Step(ctx context.Context, database *sql.DB, input StepInput) (*TransitionOutput, error) {
	if err := requireID("id", input.ID); err != nil {
		return nil, err
	}
	return apply(ctx, database, "step", func(s session.Session) (session.Session, error) {
		return s.StepAdjust(input.ID, input.Delta)
	})
}
