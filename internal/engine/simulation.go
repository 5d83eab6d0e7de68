package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/nav"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

// Engine advances a voyage. It is not safe for concurrent use; callers
// serialize access and the busy flag rejects re-entrant advances.
type Engine struct {
	State    *State
	Gen      *world.Generator
	Currents *world.Currents
	RNG      entropy.Source
	Events   []Event

	// Optional hooks. OnDay fires at each midnight inside an advance,
	// OnAdvance once after every completed advance.
	OnDay     func(st *State)
	OnAdvance func(st *State, res Result)

	busy    atomic.Bool
	pending []Effect
	logged  uint64 // events ever appended
	drained uint64
}

// New wires an engine around st. A nil rng falls back to crypto/rand.
func New(st *State, cfg world.GenConfig, rng entropy.Source) *Engine {
	if rng == nil {
		rng = entropy.Crypto{}
	}
	if st.Chart == nil {
		st.Chart = nav.NewChart(st.WorldSeed, cfg)
	}
	if st.Ship == nil {
		st.Ship = ship.NewStarter(9, 15)
	}
	return &Engine{
		State:    st,
		Gen:      world.NewGenerator(st.WorldSeed, cfg),
		Currents: world.NewCurrents(st.WorldSeed),
		RNG:      rng,
	}
}

// AdvanceOptions tunes a single advance.
type AdvanceOptions struct {
	// SkipScene leaves the current scene alone; the caller presents
	// whatever encounter comes back.
	SkipScene bool
}

// Reset swaps in a fresh voyage. Hooks survive; the event log does not.
func (e *Engine) Reset(st *State) error {
	if e.busy.Load() {
		return ErrBusy
	}
	cfg := world.DefaultGenConfig()
	if st.Chart != nil {
		cfg = st.Chart.Cfg
	}
	fresh := New(st, cfg, e.RNG)
	e.State = fresh.State
	e.Gen = fresh.Gen
	e.Currents = fresh.Currents
	e.Events = nil
	e.pending = nil
	e.logged, e.drained = 0, 0
	return nil
}

// Busy reports whether an advance is running.
func (e *Engine) Busy() bool {
	return e.busy.Load()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// AdvanceTime runs the world forward hours hours, one at a time. It stops
// early on a terminal condition or an encounter.
func (e *Engine) AdvanceTime(hours int, opts AdvanceOptions) (Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer e.busy.Store(false)

	st := e.State
	if st.Lost() {
		return Result{}, ErrLost
	}
	if hours < 1 {
		hours = 1
	}
	e.pending = nil

	var res Result
	for h := 0; h < hours; h++ {
		res.Hours++
		enc, term := e.hour(h == hours-1)
		if term != Alive {
			res.Terminal = term
			break
		}
		if enc != NoEncounter {
			res.Encounter = enc
			break
		}
	}

	if res.Terminal != Alive {
		e.die(res.Terminal)
		res.Scene = st.Scene
		res.Effects = e.pending
		e.pending = nil
		e.afterAdvance(res)
		return res, nil
	}

	if res.Encounter == NoEncounter && st.Mode == ModeAnchored && st.CurrentIsland != nil {
		res.Encounter = IslandApproach
	}
	if res.Encounter != NoEncounter {
		e.emit(EffectEncounter, string(res.Encounter))
	}
	if !opts.SkipScene {
		e.EnterScene(res.Encounter)
	}
	res.Scene = st.Scene
	res.Effects = e.pending
	e.pending = nil

	e.afterAdvance(res)
	return res, nil
}

func (e *Engine) afterAdvance(res Result) {
	if e.OnAdvance != nil {
		e.OnAdvance(e.State, res)
	}
}

// EnterScene applies the entry effects of a scene. NoEncounter returns to
// the deck.
func (e *Engine) EnterScene(enc Encounter) {
	st := e.State
	switch enc {
	case NoEncounter:
		st.Scene = "deck"
		if st.Mode != ModeAnchored {
			st.LocationName = "Open Ocean"
		}
	case IslandApproach:
		st.Scene = string(enc)
		if st.CurrentIsland != nil {
			st.Mode = ModeAnchored
			st.Speed = 0
			st.Maneuver = NoManeuver
			st.LocationName = st.CurrentIsland.Name
		}
	default:
		st.Scene = string(enc)
	}
}

// die ends the voyage.
func (e *Engine) die(term Terminal) {
	st := e.State
	st.Mode = ModeLost
	st.Speed = 0
	st.Terminal = term
	st.Scene = "lost"
	e.emit(EffectTerminal, string(term))
	slog.Warn("voyage lost",
		"run", st.RunID,
		"cause", term,
		"time", SimTime(st.Day, st.Hour),
		"x", fmt.Sprintf("%.1f", st.X),
		"y", fmt.Sprintf("%.1f", st.Y),
	)
}

// hour runs one game hour. last marks the final hour of the advance.
func (e *Engine) hour(last bool) (Encounter, Terminal) {
	st := e.State
	rng := e.RNG

	// ── Clock ──
	if st.advanceClock() {
		e.emit(EffectDay, fmt.Sprintf("day %d", st.Day))
		e.dailyReport()
		if e.OnDay != nil {
			e.OnDay(st)
		}
	}
	everySixth := st.Hour%6 == 0

	// ── Provisions ──
	eaten, foodShort := st.Food.Consume(provisions.HourlyRation)
	drunk, waterShort := st.Water.Consume(provisions.HourlyRation)
	st.Crew.Eat(eaten, drunk)
	st.Food.Spoil(provisions.SpoilMultiplier(st.Weather.Heat(), st.Bilge/100))
	st.Water.Spoil()

	if foodShort > 0 || waterShort > 0 {
		st.Crew.Starve()
		if everySixth {
			switch {
			case foodShort > 0 && waterShort > 0:
				e.emit(EffectFlavor, "starving")
			case waterShort > 0:
				e.emit(EffectFlavor, "thirsty")
			default:
				e.emit(EffectFlavor, "hungry")
			}
		}
	}
	if st.Crew.ScurvyToll() && everySixth {
		e.emit(EffectFlavor, "bedridden")
	}

	// ── Mind ──
	cat := st.Weather.Category
	if cat == weather.Storm {
		st.Crew.AdjustSanity(-0.5)
	}
	if st.CurrentIsland != nil && st.CurrentIsland.Pale {
		st.Crew.AdjustSanity(-1)
	}
	if cat == weather.Calm {
		st.CalmHours++
		st.Crew.AdjustMorale(-0.2)
	} else {
		st.CalmHours = 0
	}
	if st.CalmHours > 18 && entropy.Chance(rng, 0.15) {
		st.Crew.AdjustMorale(-2)
		e.emit(EffectFlavor, "calm_heavy")
	}
	if weather.IsNight(st.Hour) && entropy.Chance(rng, 0.05) {
		st.Crew.AdjustSanity(-1)
		e.emit(EffectFlavor, "night_lights")
	}
	if st.Crew.Morale < 20 && entropy.Chance(rng, 0.08) {
		e.emit(EffectFlavor, "dread")
	}
	st.Crew.Clamp()
	e.emit(EffectSound, "bell")

	// ── Trail ──
	st.Trail = append(st.Trail, nav.Point{X: st.X, Y: st.Y})
	if len(st.Trail) > MaxTrail {
		st.Trail = st.Trail[len(st.Trail)-MaxTrail:]
	}
	st.Chart.RevealFogAt(st.X, st.Y, st.Chart.Cfg.FogRevealRadius)

	// ── Weather ──
	if st.Hour%2 == 0 {
		if st.Weather.Roll(rng) {
			e.emit(EffectWeather, string(st.Weather.Category))
		}
	}

	// ── Bilge ──
	stats := st.Ship.Stats()
	leak := stats.LeakRate
	if st.Weather.Category == weather.Storm {
		leak *= 2
	}
	if st.Mode == ModeHoveTo {
		leak *= 0.8
	}
	st.Bilge = clamp(st.Bilge+leak-stats.PumpRate, 0, 100)
	if st.Bilge > 90 {
		e.damage(2, false)
	}
	stats = st.Ship.Stats()
	if st.Bilge >= 100 {
		return NoEncounter, Flooded
	}
	if stats.CurHull <= 0 {
		return NoEncounter, Shattered
	}

	// ── Sailing ──
	if st.Mode == ModeUnderway {
		e.sail(stats)
		if enc := e.TryEncounter(true); enc != NoEncounter {
			return enc, Alive
		}
		if last {
			return e.TryEncounter(false), Alive
		}
		return NoEncounter, Alive
	}

	st.NavError = clamp(st.NavError-0.35, MinNavError, MaxNavError)
	st.Crew.AdjustMorale(0.2)
	return NoEncounter, Alive
}

// damage applies structural damage and reports what fell away.
func (e *Engine) damage(amount int, storm bool) {
	removed, detached := e.State.Ship.TakeDamage(amount, storm, e.RNG)
	if removed > 0 {
		e.emit(EffectDamage, fmt.Sprintf("%d blocks lost", removed))
	}
	if detached {
		e.emit(EffectDetached, "section torn away")
	}
}

// sail moves the ship one hour along its heading.
func (e *Engine) sail(stats ship.Stats) {
	st := e.State
	rng := e.RNG
	wx := st.Weather

	spd := wx.WindSpeed * wx.WindMultiplier(st.Heading) * stats.SailPower / stats.Weight
	if st.Bilge > 50 {
		spd *= 0.7
	}
	if list := math.Abs(stats.List); list > 1 {
		spd *= clamp(1-list/6, 0.5, 1)
	}
	spd *= clamp(1-st.RopeWear/140, 0.55, 1)
	if stats.LeakBow > stats.LeakMid {
		spd *= 0.95
	}
	if stats.LeakStern > stats.LeakMid {
		spd *= 0.92
	}

	switch st.Maneuver {
	case Tack:
		spd *= 0.9
		if wx.Beaufort >= 6 && entropy.Chance(rng, 0.2) {
			e.emit(EffectFlavor, "tack_shudder")
			e.damage(6, true)
		}
	case Wear:
		spd *= 0.75
	}
	st.Maneuver = NoManeuver
	st.Speed = spd

	dx, dy := st.Heading.Vector()
	bx, by := st.Heading.Beam().Vector()
	leeway, wear := 0.06, 0.08
	if wx.Beaufort >= 6 {
		leeway, wear = 0.12, 0.2
	}
	cx, cy := e.Currents.DriftAt(st.X, st.Y)
	st.X += dx*spd*0.1 + bx*leeway + cx
	st.Y += dy*spd*0.1 + by*leeway + cy

	penalty := 0.1
	switch wx.Category {
	case weather.Storm:
		penalty = 0.28
	case weather.Gale:
		penalty = 0.16
	}
	st.NavError = clamp(st.NavError+penalty, MinNavError, MaxNavError)
	st.RopeWear = clamp(st.RopeWear+wear, 0, 100)
	st.Chart.RevealFogAt(st.X, st.Y, st.Chart.Cfg.FogRevealRadius)

	if entropy.Chance(rng, 0.1) {
		e.emit(EffectSound, "gull")
	}

	if wx.Category == weather.Storm && entropy.Chance(rng, 0.3) && stats.SailPower > 0 {
		if _, destroyed := st.Ship.DamageFirst(ship.FuncSail, 15); destroyed {
			e.emit(EffectFlavor, "mast_snapped")
			e.emit(EffectSound, "creak")
		}
	}
	if wx.Category == weather.Storm && stats.MastCount > stats.StayCount && entropy.Chance(rng, 0.25) {
		st.Ship.DamageFirst(ship.FuncSail, 10)
		st.RopeWear = clamp(st.RopeWear+2, 0, 100)
		e.emit(EffectFlavor, "stay_gave_way")
	}
	if wx.Beaufort >= 8 && entropy.Chance(rng, 0.1) {
		st.Speed = math.Max(0, st.Speed-4)
		st.Crew.AdjustHP(-2)
		e.emit(EffectFlavor, "broach")
	}
}

// dailyReport logs a summary at each midnight.
func (e *Engine) dailyReport() {
	st := e.State
	stats := st.Ship.Stats()
	counts := make(map[string]int)
	for _, ev := range e.Events {
		counts[ev.Category]++
	}
	slog.Info("daily report",
		"run", st.RunID,
		"time", SimTime(st.Day, st.Hour),
		"mode", st.Mode,
		"x", fmt.Sprintf("%.1f", st.X),
		"y", fmt.Sprintf("%.1f", st.Y),
		"hull", stats.CurHull,
		"bilge", fmt.Sprintf("%.1f", st.Bilge),
		"food", fmt.Sprintf("%.2f", st.Food.Total()),
		"water", fmt.Sprintf("%.2f", st.Water.Total()),
		"morale", fmt.Sprintf("%.1f", st.Crew.Morale),
		"sanity", fmt.Sprintf("%.1f", st.Crew.Sanity),
		"scurvy", fmt.Sprintf("%.1f", st.Crew.Scurvy),
		"weather", st.Weather.Category,
		"events_damage", counts[string(EffectDamage)],
		"events_encounter", counts[string(EffectEncounter)],
	)
}
