package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/session"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sessionKey is the identifier reported when no session has been seeded.
const sessionKey = "session"

// HasSession reports whether a session row exists.
func HasSession(ctx context.Context, q Querier) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM session WHERE singleton = 1").Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// LoadSession reads the persisted session. Returns NOT_FOUND when the
// database has not been seeded.
func LoadSession(ctx context.Context, q Querier) (session.Session, error) {
	var (
		s        session.Session
		editMode bool
		target   sql.NullString
	)

	row := q.QueryRowContext(ctx, `
		SELECT edit_mode, editing_target, edit_enabled
		FROM session
		WHERE singleton = 1
	`)
	err := row.Scan(&editMode, &target, &s.EditEnabled)
	if err == sql.ErrNoRows {
		return session.Session{}, errors.NewNotFound(sessionKey)
	}
	if err != nil {
		return session.Session{}, errors.NewInternal(err)
	}

	s.Mode = session.ModeView
	if editMode {
		s.Mode = session.ModeEdit
	}
	s.EditingTarget = target.String

	settings, err := loadSettings(ctx, q)
	if err != nil {
		return session.Session{}, err
	}
	bottles, err := loadBottles(ctx, q)
	if err != nil {
		return session.Session{}, err
	}
	s.Board = bottle.Collection{Bottles: bottles, Settings: settings}

	return s, nil
}

// SaveSession replaces the persisted session wholesale. Callers pass a
// transaction so readers never observe a half-written board.
func SaveSession(ctx context.Context, q Querier, s session.Session) error {
	now := time.Now().Unix()

	var target sql.NullString
	if s.EditingTarget != "" {
		target = sql.NullString{String: s.EditingTarget, Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO session (singleton, edit_mode, editing_target, edit_enabled, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			edit_mode = excluded.edit_mode,
			editing_target = excluded.editing_target,
			edit_enabled = excluded.edit_enabled,
			updated_at = excluded.updated_at
	`, s.Editing(), target, s.EditEnabled, now)
	if err != nil {
		return errors.NewInternal(err)
	}

	st := s.Board.Settings
	_, err = q.ExecContext(ctx, `
		INSERT INTO settings (singleton, divisions, max_level, min_level, global_color)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			divisions = excluded.divisions,
			max_level = excluded.max_level,
			min_level = excluded.min_level,
			global_color = excluded.global_color
	`, st.Divisions, st.MaxLevel, st.MinLevel, st.GlobalColor)
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM bottles"); err != nil {
		return errors.NewInternal(err)
	}
	for i, b := range s.Board.Bottles {
		_, err := q.ExecContext(ctx,
			"INSERT INTO bottles (position, id, answer, level, color) VALUES (?, ?, ?, ?, ?)",
			i, b.ID, b.Answer, b.Level, toNullString(b.Color),
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	return nil
}

// loadSettings reads the settings row.
func loadSettings(ctx context.Context, q Querier) (bottle.Settings, error) {
	var st bottle.Settings
	err := q.QueryRowContext(ctx, `
		SELECT divisions, max_level, min_level, global_color
		FROM settings
		WHERE singleton = 1
	`).Scan(&st.Divisions, &st.MaxLevel, &st.MinLevel, &st.GlobalColor)
	if err == sql.ErrNoRows {
		return bottle.Settings{}, errors.NewNotFound("settings")
	}
	if err != nil {
		return bottle.Settings{}, errors.NewInternal(err)
	}
	return st, nil
}

// loadBottles reads all bottles in display order.
func loadBottles(ctx context.Context, q Querier) ([]bottle.Bottle, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, answer, level, color FROM bottles ORDER BY position")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	bottles := []bottle.Bottle{}
	for rows.Next() {
		var (
			b     bottle.Bottle
			color sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Answer, &b.Level, &color); err != nil {
			return nil, errors.NewInternal(err)
		}
		b.Color = color.String
		bottles = append(bottles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return bottles, nil
}

// toNullString maps the empty string to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
