package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/db"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/metrics"
	"github.com/hpungsan/bottles/internal/session"
)

// BottleView is a bottle as presented to callers: the stored fields plus
// values derived from the settings.
type BottleView struct {
	ID       string  `json:"id"`
	Answer   string  `json:"answer"`
	Level    float64 `json:"level"`
	Step     int     `json:"step"`
	Color    string  `json:"color"`
	Override bool    `json:"color_override"`
}

// State is the JSON-friendly view of a session returned by every operation.
type State struct {
	Bottles       []BottleView    `json:"bottles"`
	Settings      bottle.Settings `json:"settings"`
	Mode          session.Mode    `json:"mode"`
	EditingTarget string          `json:"editing_target,omitempty"`
	EditEnabled   bool            `json:"edit_enabled"`
}

// TransitionOutput is the result of any operation that may change state.
type TransitionOutput struct {
	Changed bool  `json:"changed"`
	State   State `json:"state"`
}

// NewState builds the view of a session.
func NewState(s session.Session) State {
	st := s.Board.Settings
	views := make([]BottleView, len(s.Board.Bottles))
	for i, b := range s.Board.Bottles {
		views[i] = BottleView{
			ID:       b.ID,
			Answer:   b.Answer,
			Level:    b.Level,
			Step:     bottle.StepOf(b.Level, st.Divisions),
			Color:    bottle.EffectiveColor(b, st),
			Override: b.Color != "",
		}
	}
	return State{
		Bottles:       views,
		Settings:      st,
		Mode:          s.Mode,
		EditingTarget: s.EditingTarget,
		EditEnabled:   s.EditEnabled,
	}
}

// Show returns the current state.
func Show(ctx context.Context, database *sql.DB) (*State, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("show")
	}
	s, err := db.LoadSession(ctx, database)
	if err != nil {
		return nil, err
	}
	state := NewState(s)
	return &state, nil
}

// apply runs one transition inside a transaction: load, transform, save.
// Nothing is written when the transition fails or leaves the session as it was.
func apply(ctx context.Context, database *sql.DB, op string, fn func(session.Session) (session.Session, error)) (*TransitionOutput, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled(op)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	before, err := db.LoadSession(ctx, tx)
	if err != nil {
		return nil, err
	}

	after, err := fn(before)
	if err != nil {
		return nil, err
	}

	changed := !session.Equal(before, after)
	if changed {
		if err := db.SaveSession(ctx, tx, after); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to commit: %w", err))
		}
	}

	metrics.RecordTransition(op, changed, len(after.Board.Bottles))
	return &TransitionOutput{Changed: changed, State: NewState(after)}, nil
}

// requireID validates a bottle id argument.
func requireID(field, id string) error {
	if id == "" {
		return errors.NewInvalidRequest(field + " is required")
	}
	return nil
}
