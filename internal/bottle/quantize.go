package bottle

import "math"

// MinDivisions is the smallest division count a settings update accepts.
const MinDivisions = 2

// stepEpsilon absorbs float noise when converting bounds into step indexes.
const stepEpsilon = 1e-9

// StepLevel converts a step index into a fill level. Every level produced
// from a step goes through here so equal steps compare equal.
func StepLevel(step, divisions int) float64 {
	return float64(step) * 100 / float64(divisions)
}

// StepOf returns the nearest step index for a level, rounding halves up.
func StepOf(level float64, divisions int) int {
	return int(math.Floor(level/100*float64(divisions) + 0.5))
}

// Quantize rounds value to the nearest of the divisions+1 evenly spaced
// points in [0, 100]. Points are scanned in ascending order and only a
// strictly closer point replaces the current best, so ties go to the lower
// point. Divisions below 1 leave the value unchanged.
func Quantize(value float64, divisions int) float64 {
	if divisions < 1 {
		return value
	}
	best := StepLevel(0, divisions)
	bestDist := math.Abs(best - value)
	for i := 1; i <= divisions; i++ {
		p := StepLevel(i, divisions)
		if d := math.Abs(p - value); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Clamp bounds value to [lo, hi]. When lo > hi, lo wins.
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// Snap clamps value to the settings' level bounds and quantizes it. If the
// quantized point falls outside the bounds (bounds not aligned to a step),
// it moves one step inward when that step is still within bounds.
func Snap(value float64, s Settings) float64 {
	level := Quantize(Clamp(value, s.MinLevel, s.MaxLevel), s.Divisions)
	if s.Divisions < 1 {
		return level
	}
	step := StepOf(level, s.Divisions)
	switch {
	case level < s.MinLevel && step < s.Divisions:
		if up := StepLevel(step+1, s.Divisions); up <= s.MaxLevel {
			return up
		}
	case level > s.MaxLevel && step > 0:
		if down := StepLevel(step-1, s.Divisions); down >= s.MinLevel {
			return down
		}
	}
	return level
}

// stepBounds returns the lowest and highest step index whose level lies
// within [MinLevel, MaxLevel]. Falls back to [0, Divisions] when no step
// fits.
func (s Settings) stepBounds() (int, int) {
	d := float64(s.Divisions)
	lo := int(math.Ceil(s.MinLevel/100*d - stepEpsilon))
	hi := int(math.Floor(s.MaxLevel/100*d + stepEpsilon))
	lo = max(lo, 0)
	hi = min(hi, s.Divisions)
	if lo > hi {
		return 0, s.Divisions
	}
	return lo, hi
}
