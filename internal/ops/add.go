package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/session"
)

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	Bottle bottle.Bottle `json:"bottle"`
	TransitionOutput
}

// Add appends a new bottle with the default label at level 0 (edit mode).
func Add(ctx context.Context, database *sql.DB) (*AddOutput, error) {
	var added bottle.Bottle
	out, err := apply(ctx, database, "add", func(s session.Session) (session.Session, error) {
		next, b, err := s.AddBottle()
		added = b
		return next, err
	})
	if err != nil {
		return nil, err
	}
	return &AddOutput{Bottle: added, TransitionOutput: *out}, nil
}
