package entities

import "fmt"

// LevelTable holds cumulative XP thresholds: index i is the minimum XP
// required for level i+1. The first entry must be 0 so every user is at
// least level 1. The table comes from configuration; DefaultLevelTable is
// used when none is configured.
type LevelTable []int64

// DefaultLevelTable returns the built-in progression curve (levels 1-11).
func DefaultLevelTable() LevelTable {
	return LevelTable{0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500, 10000}
}

// Validate checks that the table is usable: non-empty, starting at zero
// and non-decreasing.
func (t LevelTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("level table is empty")
	}
	if t[0] != 0 {
		return fmt.Errorf("level table must start at 0, got %d", t[0])
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return fmt.Errorf("level table not non-decreasing at index %d: %d < %d", i, t[i], t[i-1])
		}
	}
	return nil
}

// LevelFor returns the level reached with the given cumulative XP. One
// award can cross several thresholds at once, so callers must use the
// returned level rather than assume a single-step increment.
func (t LevelTable) LevelFor(xp int64) int {
	level := 1
	for i := 1; i < len(t); i++ {
		if xp < t[i] {
			break
		}
		level = i + 1
	}
	return level
}

// DidLevelUp reports whether moving from oldXP to newXP crossed at least
// one threshold.
func (t LevelTable) DidLevelUp(oldXP, newXP int64) bool {
	return t.LevelFor(newXP) > t.LevelFor(oldXP)
}
