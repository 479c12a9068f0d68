package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/session"
)

// ReorderInput contains parameters for the Reorder operation.
type ReorderInput struct {
	DraggedID string
	TargetID  string
}

// Reorder moves the dragged bottle to the target's position (edit mode).
func Reorder(ctx context.Context, database *sql.DB, input ReorderInput) (*TransitionOutput, error) {
	if err := requireID("dragged_id", input.DraggedID); err != nil {
		return nil, err
	}
	if err := requireID("target_id", input.TargetID); err != nil {
		return nil, err
	}
	return apply(ctx, database, "reorder", func(s session.Session) (session.Session, error) {
		return s.Reorder(input.DraggedID, input.TargetID)
	})
}
