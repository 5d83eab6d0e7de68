// Package engine runs the voyage: an hour-granular loop that feeds the
// sailor, rolls the weather, fills the bilge, moves the ship, and decides
// what the sea throws at her next.
package engine

import "fmt"

// HoursPerDay is the length of a game day.
const HoursPerDay = 24

// Tick returns a monotonic hour counter for (day, hour).
func Tick(day, hour int) uint64 {
	if day < 0 {
		day = 0
	}
	return uint64(day*HoursPerDay + hour)
}

// SimTime formats the game clock for logs and the API.
func SimTime(day, hour int) string {
	return fmt.Sprintf("Day %d, %02d:00", day, hour)
}

// Watch names the part of the day an hour falls in.
func Watch(hour int) string {
	switch {
	case hour < 4:
		return "Moonless night"
	case hour < 6:
		return "Dawn"
	case hour < 12:
		return "Morning"
	case hour < 17:
		return "Afternoon"
	case hour < 20:
		return "Dusk"
	}
	return "Night"
}

// advanceClock moves the clock one hour and reports a day rollover.
func (s *State) advanceClock() (newDay bool) {
	s.Hour = (s.Hour + 1) % HoursPerDay
	if s.Hour == 0 {
		s.Day++
		return true
	}
	return false
}
