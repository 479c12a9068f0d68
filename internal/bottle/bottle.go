package bottle

// DefaultAnswer is the label given to bottles created with AddBottle.
const DefaultAnswer = "New Answer"

// UseGlobal is the color value that clears a bottle's override so it
// inherits Settings.GlobalColor again.
const UseGlobal = ""

// Bottle is one fill-level slot on the board.
type Bottle struct {
	// ID is stable across reorders and never reused after removal
	ID string `json:"id"`

	// Answer is the display label (free-form, may be empty)
	Answer string `json:"answer"`

	// Level is the fill percentage in [0, 100]
	Level float64 `json:"level"`

	// Color overrides Settings.GlobalColor when non-empty
	Color string `json:"color,omitempty"`
}

// Settings are the board-wide values shared by every bottle.
type Settings struct {
	Divisions   int     `json:"divisions"`
	MaxLevel    float64 `json:"maxLevel"`
	MinLevel    float64 `json:"minLevel"`
	GlobalColor string  `json:"globalColor"`
}

// Collection is the ordered sequence of bottles plus settings.
// Order is display and export order.
//
// Transitions use value receivers and return a new Collection; the
// receiver's Bottles slice is never written to.
type Collection struct {
	Bottles  []Bottle `json:"bottles"`
	Settings Settings `json:"settings"`
}

// EffectiveColor returns the color a bottle is rendered with: its own
// override when set, else the board's global color.
func EffectiveColor(b Bottle, s Settings) string {
	if b.Color != "" {
		return b.Color
	}
	return s.GlobalColor
}

// Index returns the position of the first bottle with the given id, or -1.
func (c Collection) Index(id string) int {
	for i, b := range c.Bottles {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the first bottle with the given id.
func (c Collection) Find(id string) (Bottle, bool) {
	if i := c.Index(id); i >= 0 {
		return c.Bottles[i], true
	}
	return Bottle{}, false
}

// IDs returns bottle ids in display order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c.Bottles))
	for i, b := range c.Bottles {
		ids[i] = b.ID
	}
	return ids
}

// Equal reports whether two collections hold the same bottles in the same
// order and the same settings. A nil and an empty bottle list are equal.
func Equal(a, b Collection) bool {
	if a.Settings != b.Settings || len(a.Bottles) != len(b.Bottles) {
		return false
	}
	for i := range a.Bottles {
		if a.Bottles[i] != b.Bottles[i] {
			return false
		}
	}
	return true
}

// clone copies the bottle slice so the result can be modified freely.
func (c Collection) clone() Collection {
	bottles := make([]Bottle, len(c.Bottles), len(c.Bottles)+1)
	copy(bottles, c.Bottles)
	return Collection{Bottles: bottles, Settings: c.Settings}
}

// mapMatching applies fn to every bottle whose id matches. Imported boards
// may carry duplicate ids, and every duplicate is updated.
func (c Collection) mapMatching(id string, fn func(Bottle) Bottle) (Collection, bool) {
	if c.Index(id) < 0 {
		return c, false
	}
	out := c.clone()
	changed := false
	for i, b := range out.Bottles {
		if b.ID != id {
			continue
		}
		updated := fn(b)
		if updated != b {
			out.Bottles[i] = updated
			changed = true
		}
	}
	if !changed {
		return c, false
	}
	return out, true
}
