package engine

import (
	"errors"
	"log/slog"
)

var (
	// ErrBusy is returned when time is advanced while an advance is running.
	ErrBusy = errors.New("engine busy: time is already passing")
	// ErrLost is returned for any command once the voyage has ended.
	ErrLost = errors.New("the voyage has ended")
	// ErrUnavailable is returned for a command that cannot be done now.
	ErrUnavailable = errors.New("not possible now")
)

// Encounter is a scene the sea presents. The engine knows only the tag;
// the text belongs to the presentation layer.
type Encounter string

const (
	NoEncounter    Encounter = ""
	IslandApproach Encounter = "island_approach"
	StormEvent     Encounter = "storm_event"
	Debris         Encounter = "debris"
	Derelict       Encounter = "derelict"
	Omen           Encounter = "omen"
	Madness        Encounter = "madness"
	NightReef      Encounter = "night_reef"
	Doldrums       Encounter = "doldrums"
)

// Terminal is how a voyage ended.
type Terminal string

const (
	Alive     Terminal = ""
	Flooded   Terminal = "bilge_overflow"
	Shattered Terminal = "hull_destroyed"
)

// EffectKind groups effects for the presentation layer.
type EffectKind string

const (
	EffectDay       EffectKind = "day"
	EffectWeather   EffectKind = "weather"
	EffectSound     EffectKind = "sound"
	EffectFlavor    EffectKind = "flavor"
	EffectSighting  EffectKind = "sighting"
	EffectDamage    EffectKind = "damage"
	EffectDetached  EffectKind = "detached"
	EffectEncounter EffectKind = "encounter"
	EffectTerminal  EffectKind = "terminal"
)

// Effect is one thing that happened during an advance.
type Effect struct {
	Kind EffectKind `json:"kind"`
	Tag  string     `json:"tag"`
	Day  int        `json:"day"`
	Hour int        `json:"hour"`
}

func (e Effect) String() string {
	return string(e.Kind) + ":" + e.Tag
}

// Result is what an advance produced.
type Result struct {
	Hours     int       `json:"hours"`
	Encounter Encounter `json:"encounter,omitempty"`
	Terminal  Terminal  `json:"terminal,omitempty"`
	Scene     string    `json:"scene"`
	Effects   []Effect  `json:"effects"`
}

// Event is a notable occurrence kept in the voyage log.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// maxEvents bounds the in-memory log.
const maxEvents = 500

// takePending hands over effects emitted outside an advance.
func (e *Engine) takePending() []Effect {
	fx := e.pending
	e.pending = nil
	return fx
}

func (e *Engine) emit(kind EffectKind, tag string) {
	st := e.State
	fx := Effect{Kind: kind, Tag: tag, Day: st.Day, Hour: st.Hour}
	e.pending = append(e.pending, fx)

	// Bells and gulls are too frequent for the log.
	if kind == EffectSound {
		return
	}
	e.Events = append(e.Events, Event{
		Tick:        Tick(st.Day, st.Hour),
		Description: tag,
		Category:    string(kind),
	})
	e.logged++
	if len(e.Events) > maxEvents {
		e.Events = e.Events[len(e.Events)-maxEvents:]
	}
	slog.Debug("effect", "kind", kind, "tag", tag, "time", SimTime(st.Day, st.Hour))
}

// DrainEvents returns the events logged since the previous drain, for
// archiving. Events that fell off the ring in between are lost.
func (e *Engine) DrainEvents() []Event {
	n := e.logged - e.drained
	if n > uint64(len(e.Events)) {
		n = uint64(len(e.Events))
	}
	e.drained = e.logged
	return append([]Event(nil), e.Events[len(e.Events)-int(n):]...)
}
