package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/session"
)

// UpdateSettingsInput contains parameters for the UpdateSettings operation.
type UpdateSettingsInput struct {
	Divisions   *int    // clamped up to 2
	GlobalColor *string
}

// UpdateSettings changes the division count and/or global color (edit mode).
// Both changes land in one transaction; a division change re-snaps every bottle.
func UpdateSettings(ctx context.Context, database *sql.DB, input UpdateSettingsInput) (*TransitionOutput, error) {
	if input.Divisions == nil && input.GlobalColor == nil {
		return nil, errors.NewInvalidRequest("at least one of divisions, global_color is required")
	}
	if input.GlobalColor != nil && strings.TrimSpace(*input.GlobalColor) == "" {
		return nil, errors.NewInvalidRequest("global_color must not be empty")
	}

	return apply(ctx, database, "settings", func(s session.Session) (session.Session, error) {
		var err error
		if input.Divisions != nil {
			if s, err = s.UpdateDivisions(*input.Divisions); err != nil {
				return s, err
			}
		}
		if input.GlobalColor != nil {
			if s, err = s.UpdateGlobalColor(strings.TrimSpace(*input.GlobalColor)); err != nil {
				return s, err
			}
		}
		return s, nil
	})
}
