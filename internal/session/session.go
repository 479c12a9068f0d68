package session

import (
	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/errors"
)

// Mode is the interaction mode of a session.
type Mode string

const (
	// ModeView only allows fill-level clicks
	ModeView Mode = "view"

	// ModeEdit allows structural changes to the board
	ModeEdit Mode = "edit"
)

// Session is the whole interactive state: the board plus UI mode. Every
// method returns a new Session and leaves the receiver untouched.
type Session struct {
	// Board is the collection being displayed
	Board bottle.Collection

	// Mode is ModeView or ModeEdit
	Mode Mode

	// EditingTarget is the bottle selected for editing ("" for none).
	// Only meaningful in ModeEdit.
	EditingTarget string

	// EditEnabled is the deployment flag; when false the session never
	// leaves ModeView
	EditEnabled bool
}

// New returns a view-mode session over board.
func New(board bottle.Collection, editEnabled bool) Session {
	return Session{Board: board, Mode: ModeView, EditEnabled: editEnabled}
}

// Editing reports whether the session is in edit mode.
func (s Session) Editing() bool {
	return s.Mode == ModeEdit
}

// ToggleEdit switches between view and edit mode, clearing the editing
// target either way.
func (s Session) ToggleEdit() (Session, error) {
	if s.Editing() {
		s.Mode = ModeView
		s.EditingTarget = ""
		return s, nil
	}
	if !s.EditEnabled {
		return s, errors.NewEditDisabled()
	}
	s.Mode = ModeEdit
	s.EditingTarget = ""
	return s, nil
}

// Select toggles the editing target. Selecting the current target clears
// it; unknown ids are ignored.
func (s Session) Select(id string) (Session, error) {
	if !s.Editing() {
		return s, errors.NewEditModeRequired("select")
	}
	if s.EditingTarget == id {
		s.EditingTarget = ""
		return s, nil
	}
	if s.Board.Index(id) < 0 {
		return s, nil
	}
	s.EditingTarget = id
	return s, nil
}

// Click adjusts a fill level by one division. Ignored in edit mode.
func (s Session) Click(id string, dir bottle.Direction) Session {
	if s.Editing() {
		return s
	}
	s.Board = s.Board.Click(id, dir)
	return s
}

// StepAdjust is the edit-mode +/- control.
func (s Session) StepAdjust(id string, delta int) (Session, error) {
	return s.edit("step", func(c bottle.Collection) bottle.Collection {
		return c.StepAdjust(id, delta)
	})
}

// AddBottle appends a new bottle and returns it.
func (s Session) AddBottle() (Session, bottle.Bottle, error) {
	if !s.Editing() {
		return s, bottle.Bottle{}, errors.NewEditModeRequired("add")
	}
	var added bottle.Bottle
	s.Board, added = s.Board.AddBottle()
	return s, added, nil
}

// RemoveBottle deletes a bottle; removing the editing target clears it.
func (s Session) RemoveBottle(id string) (Session, error) {
	out, err := s.edit("remove", func(c bottle.Collection) bottle.Collection {
		return c.RemoveBottle(id)
	})
	if err != nil {
		return s, err
	}
	if out.EditingTarget == id {
		out.EditingTarget = ""
	}
	return out, nil
}

// UpdateBottle merges a patch into a bottle.
func (s Session) UpdateBottle(id string, p bottle.Patch) (Session, error) {
	return s.edit("update", func(c bottle.Collection) bottle.Collection {
		return c.UpdateBottle(id, p)
	})
}

// UpdateGlobalColor sets the board's default color.
func (s Session) UpdateGlobalColor(color string) (Session, error) {
	return s.edit("global color", func(c bottle.Collection) bottle.Collection {
		return c.UpdateGlobalColor(color)
	})
}

// UpdateDivisions changes the division count and re-snaps every bottle.
func (s Session) UpdateDivisions(divisions int) (Session, error) {
	return s.edit("divisions", func(c bottle.Collection) bottle.Collection {
		return c.UpdateDivisions(divisions)
	})
}

// Reorder moves draggedID to targetID's position.
func (s Session) Reorder(draggedID, targetID string) (Session, error) {
	return s.edit("reorder", func(c bottle.Collection) bottle.Collection {
		return c.Reorder(draggedID, targetID)
	})
}

// Reset restores levels from the defaults. Allowed in either mode.
func (s Session) Reset(defaults bottle.Collection) Session {
	s.Board = s.Board.Reset(defaults)
	return s
}

// Export serializes the board.
func (s Session) Export() ([]byte, error) {
	return s.Board.Export()
}

// Import replaces the board wholesale and returns to view mode. On a parse
// failure the receiver is returned unchanged along with the parse error,
// which callers are expected to swallow.
func (s Session) Import(data []byte) (Session, error) {
	board, err := bottle.Import(data)
	if err != nil {
		return s, err
	}
	s.Board = board
	s.Mode = ModeView
	s.EditingTarget = ""
	return s, nil
}

// edit applies fn to the board when in edit mode.
func (s Session) edit(op string, fn func(bottle.Collection) bottle.Collection) (Session, error) {
	if !s.Editing() {
		return s, errors.NewEditModeRequired(op)
	}
	s.Board = fn(s.Board)
	return s, nil
}

// Equal reports whether two sessions are identical.
func Equal(a, b Session) bool {
	return a.Mode == b.Mode &&
		a.EditingTarget == b.EditingTarget &&
		a.EditEnabled == b.EditEnabled &&
		bottle.Equal(a.Board, b.Board)
}
