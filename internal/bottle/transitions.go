package bottle

import "strings"

// Direction is the way a click moves a bottle's level.
type Direction string

const (
	Forward Direction = "forward" // primary click: one division up
	Back    Direction = "back"    // secondary click: one division down
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Forward || d == Back
}

// Patch holds the fields of an update; nil fields are left unchanged.
type Patch struct {
	Answer *string
	Level  *float64
	Color  *string
}

// Click moves a bottle one division in the given direction, clamps to the
// level bounds and snaps to a division. Unknown ids are a no-op.
func (c Collection) Click(id string, dir Direction) Collection {
	sign := 1.0
	if dir == Back {
		sign = -1
	}
	increment := 100 / float64(c.Settings.Divisions) * sign
	out, _ := c.mapMatching(id, func(b Bottle) Bottle {
		b.Level = Snap(b.Level+increment, c.Settings)
		return b
	})
	return out
}

// StepAdjust moves a bottle by delta whole steps. It is a no-op at the
// boundary in the requested direction and for unknown ids.
func (c Collection) StepAdjust(id string, delta int) Collection {
	d := c.Settings.Divisions
	if delta == 0 || d < 1 {
		return c
	}
	lo, hi := c.Settings.stepBounds()
	out, _ := c.mapMatching(id, func(b Bottle) Bottle {
		if (delta < 0 && b.Level <= 0) || (delta > 0 && b.Level >= 100) {
			return b
		}
		step := min(max(StepOf(b.Level, d)+delta, lo), hi)
		b.Level = StepLevel(step, d)
		return b
	})
	return out
}

// AddBottle appends a bottle with a fresh id, the default label, level 0
// and no color override. It returns the new collection and the new bottle.
func (c Collection) AddBottle() (Collection, Bottle) {
	id := NewID()
	for c.Index(id) >= 0 {
		id = NewID()
	}
	b := Bottle{ID: id, Answer: DefaultAnswer}
	out := c.clone()
	out.Bottles = append(out.Bottles, b)
	return out, b
}

// RemoveBottle deletes every bottle with the given id. The order and ids
// of the remaining bottles are untouched.
func (c Collection) RemoveBottle(id string) Collection {
	if c.Index(id) < 0 {
		return c
	}
	bottles := make([]Bottle, 0, len(c.Bottles)-1)
	for _, b := range c.Bottles {
		if b.ID != id {
			bottles = append(bottles, b)
		}
	}
	return Collection{Bottles: bottles, Settings: c.Settings}
}

// UpdateBottle merges the patch into the matching bottle. A color equal to
// the global color, or UseGlobal, clears the override. Levels are snapped.
func (c Collection) UpdateBottle(id string, p Patch) Collection {
	out, _ := c.mapMatching(id, func(b Bottle) Bottle {
		if p.Answer != nil {
			b.Answer = *p.Answer
		}
		if p.Level != nil {
			b.Level = Snap(*p.Level, c.Settings)
		}
		if p.Color != nil {
			color := strings.TrimSpace(*p.Color)
			if color == UseGlobal || strings.EqualFold(color, c.Settings.GlobalColor) {
				color = UseGlobal
			}
			b.Color = color
		}
		return b
	})
	return out
}

// UpdateGlobalColor sets the default color. Bottles without an override
// pick it up through EffectiveColor; nothing is copied into them.
func (c Collection) UpdateGlobalColor(color string) Collection {
	if c.Settings.GlobalColor == color {
		return c
	}
	out := c.clone()
	out.Settings.GlobalColor = color
	return out
}

// UpdateDivisions sets the division count (raised to MinDivisions when
// lower) and re-snaps every bottle against it in the same new value.
func (c Collection) UpdateDivisions(divisions int) Collection {
	divisions = max(divisions, MinDivisions)
	out := c.clone()
	out.Settings.Divisions = divisions
	for i := range out.Bottles {
		out.Bottles[i].Level = Snap(out.Bottles[i].Level, out.Settings)
	}
	if Equal(c, out) {
		return c
	}
	return out
}

// Reorder moves the dragged bottle to the target's original index within
// the remaining bottles. Missing ids and dragged == target are no-ops.
func (c Collection) Reorder(draggedID, targetID string) Collection {
	if draggedID == targetID {
		return c
	}
	from := c.Index(draggedID)
	to := c.Index(targetID)
	if from < 0 || to < 0 {
		return c
	}

	dragged := c.Bottles[from]
	rest := make([]Bottle, 0, len(c.Bottles))
	rest = append(rest, c.Bottles[:from]...)
	rest = append(rest, c.Bottles[from+1:]...)

	bottles := make([]Bottle, 0, len(c.Bottles))
	bottles = append(bottles, rest[:to]...)
	bottles = append(bottles, dragged)
	bottles = append(bottles, rest[to:]...)
	return Collection{Bottles: bottles, Settings: c.Settings}
}

// Reset restores every bottle's level from the default collection by id;
// bottles absent from the defaults go to 0. Labels, colors, ids and order
// are kept.
func (c Collection) Reset(defaults Collection) Collection {
	out := c.clone()
	for i, b := range out.Bottles {
		level := 0.0
		if d, ok := defaults.Find(b.ID); ok {
			level = d.Level
		}
		out.Bottles[i].Level = level
	}
	if Equal(c, out) {
		return c
	}
	return out
}
