package ops

import (
	"context"
	"database/sql"
	"math"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/session"
)

// UpdateInput contains parameters for the Update operation.
// Nil fields are left unchanged; Color set to bottle.UseGlobal clears the override.
type UpdateInput struct {
	ID     string
	Answer *string
	Level  *float64
	Color  *string
}

// Update edits a bottle's label, level or color (edit mode).
func Update(ctx context.Context, database *sql.DB, input UpdateInput) (*TransitionOutput, error) {
	if err := requireID("id", input.ID); err != nil {
		return nil, err
	}
	if input.Answer == nil && input.Level == nil && input.Color == nil {
		return nil, errors.NewInvalidRequest("at least one of answer, level, color is required")
	}
	if input.Level != nil && (math.IsNaN(*input.Level) || math.IsInf(*input.Level, 0)) {
		return nil, errors.NewInvalidRequest("level must be a finite number")
	}

	patch := bottle.Patch{Answer: input.Answer, Level: input.Level, Color: input.Color}
	return apply(ctx, database, "update", func(s session.Session) (session.Session, error) {
		return s.UpdateBottle(input.ID, patch)
	})
}
