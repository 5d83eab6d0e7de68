package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/drowned-chart/internal/entropy"
	"github.com/talgya/drowned-chart/internal/nav"
	"github.com/talgya/drowned-chart/internal/provisions"
	"github.com/talgya/drowned-chart/internal/ship"
	"github.com/talgya/drowned-chart/internal/weather"
	"github.com/talgya/drowned-chart/internal/world"
)

// Amounts for deck work.
const (
	pumpStroke    = 40
	patchHP       = 10
	riggingRelief = 25
	sunSightGain  = 6
	starFixGain   = 4
	scavengeHours = 4
	waitHours     = 4
	fishChance    = 0.5
)

// ready rejects commands while time is passing or after the end.
func (e *Engine) ready() error {
	if e.busy.Load() {
		return ErrBusy
	}
	if e.State.Lost() {
		return ErrLost
	}
	return nil
}

// hourOfWork spends one hour after a command.
func (e *Engine) hourOfWork() (Result, error) {
	return e.AdvanceTime(1, AdvanceOptions{})
}

// MakeSail gets the ship underway, weighing anchor if needed.
func (e *Engine) MakeSail() error {
	if err := e.ready(); err != nil {
		return err
	}
	st := e.State
	if st.Mode == ModeUnderway {
		return nil
	}
	if st.Mode == ModeAnchored {
		slog.Info("anchor weighed", "at", st.LocationName)
		st.CurrentIsland = nil
	}
	st.Mode = ModeUnderway
	st.Scene = "deck"
	st.LocationName = "Open Ocean"
	return nil
}

// HeaveTo stops the ship where she lies.
func (e *Engine) HeaveTo() error {
	if err := e.ready(); err != nil {
		return err
	}
	st := e.State
	if st.Mode != ModeUnderway {
		return ErrUnavailable
	}
	st.Mode = ModeHoveTo
	st.Speed = 0
	st.Maneuver = NoManeuver
	return nil
}

// DropAnchor anchors the ship. Off an island the anchor holds at the
// current island; in open water it is a sea anchor.
func (e *Engine) DropAnchor() error {
	if err := e.ready(); err != nil {
		return err
	}
	st := e.State
	if st.Mode == ModeAnchored {
		return ErrUnavailable
	}
	st.Mode = ModeAnchored
	st.Speed = 0
	st.Maneuver = NoManeuver
	return nil
}

// Wait lets a watch go by.
func (e *Engine) Wait() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	return e.AdvanceTime(waitHours, AdvanceOptions{})
}

// Steer changes heading. Underway it costs an hour and a maneuver;
// otherwise the bow is simply pointed.
func (e *Engine) Steer(heading world.Direction, m Maneuver) (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	heading = heading.Normalize()
	if st.Mode != ModeUnderway {
		st.Heading = heading
		return Result{Scene: st.Scene}, nil
	}
	if m != Tack && m != Wear {
		m = Wear
	}
	st.Heading = heading
	st.Maneuver = m
	return e.hourOfWork()
}

// PumpBilge works the pumps for an hour.
func (e *Engine) PumpBilge() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	st.Bilge = math.Max(0, st.Bilge-pumpStroke-st.Ship.Stats().PumpRate*10)
	return e.hourOfWork()
}

// Fish puts a line over the side. The ship must be still.
func (e *Engine) Fish() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	if st.Mode != ModeHoveTo && st.Mode != ModeAnchored {
		return Result{}, ErrUnavailable
	}
	if entropy.Chance(e.RNG, fishChance) {
		st.Food[provisions.Fresh] += float64(2 + entropy.Intn(e.RNG, 2))
		st.Crew.AdjustMorale(5)
		e.emit(EffectFlavor, "catch")
	} else {
		e.emit(EffectFlavor, "empty_line")
	}
	caught := e.takePending()
	res, err := e.hourOfWork()
	res.Effects = append(caught, res.Effects...)
	return res, err
}

// CanSunSight reports whether the noon sun is usable.
func (e *Engine) CanSunSight() bool {
	st := e.State
	return st.Hour >= 11 && st.Hour <= 13 && st.Weather.Category != weather.Storm
}

// CanStarFix reports whether the stars are usable.
func (e *Engine) CanStarFix() bool {
	st := e.State
	cat := st.Weather.Category
	return weather.IsNight(st.Hour) && cat != weather.Storm && cat != weather.Gale
}

// TakeSunSight fixes position from the noon sun.
func (e *Engine) TakeSunSight() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	if !e.CanSunSight() {
		return Result{}, ErrUnavailable
	}
	e.State.NavError = math.Max(MinNavError, e.State.NavError-sunSightGain)
	return e.hourOfWork()
}

// TakeStarFix fixes position from the stars.
func (e *Engine) TakeStarFix() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	if !e.CanStarFix() {
		return Result{}, ErrUnavailable
	}
	e.State.NavError = math.Max(MinNavError, e.State.NavError-starFixGain)
	return e.hourOfWork()
}

// PatchHull spends a timber on the worst damaged block.
func (e *Engine) PatchHull() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	if err := st.Materials.Spend(map[string]int{provisions.Timber: 1}); err != nil {
		return Result{}, err
	}
	if x, y, ok := st.Ship.MostDamaged(); ok {
		st.Ship.Repair(x, y, patchHP)
	}
	return e.hourOfWork()
}

// AdjustRigging spends a rope to take up wear.
func (e *Engine) AdjustRigging() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	if err := st.Materials.Spend(map[string]int{provisions.Rope: 1}); err != nil {
		return Result{}, err
	}
	st.RopeWear = math.Max(0, st.RopeWear-riggingRelief)
	return e.hourOfWork()
}

// Build places a block, paying its cost.
func (e *Engine) Build(x, y int, id string) error {
	if err := e.ready(); err != nil {
		return err
	}
	st := e.State
	if err := ship.CanPlace(st.Ship, x, y, id, st.Materials); err != nil {
		return fmt.Errorf("place %s at %d,%d: %w", id, x, y, err)
	}
	def, _ := ship.Lookup(id)
	if err := st.Materials.Spend(def.Cost); err != nil {
		return fmt.Errorf("place %s: %w", id, err)
	}
	ship.Place(st.Ship, x, y, id)
	return nil
}

// Dismantle removes a block. Returns the number of blocks that fell away
// with it and the effects the removal raised.
func (e *Engine) Dismantle(x, y int) (int, []Effect, error) {
	if err := e.ready(); err != nil {
		return 0, nil, err
	}
	st := e.State
	switch {
	case !st.Ship.InBounds(x, y):
		return 0, nil, ship.ErrOutOfBounds
	case st.Ship.IsKeel(x, y):
		return 0, nil, ship.ErrKeel
	case st.Ship.Get(x, y) == nil:
		return 0, nil, ship.ErrEmpty
	}
	dropped := st.Ship.Remove(x, y)
	if dropped > 0 {
		e.emit(EffectDetached, fmt.Sprintf("%d blocks fell away", dropped))
	}
	return dropped, e.takePending(), nil
}

// Caulk seals a hull plank with a canvas.
func (e *Engine) Caulk(x, y int) error {
	if err := e.ready(); err != nil {
		return err
	}
	st := e.State
	if !st.Materials.Covers(map[string]int{provisions.Canvas: 1}) {
		return provisions.ErrShort
	}
	if err := st.Ship.Seal(x, y); err != nil {
		return err
	}
	return st.Materials.Spend(map[string]int{provisions.Canvas: 1})
}

// Scavenge sends the sailor ashore for four hours. Each island yields
// once.
func (e *Engine) Scavenge() (Result, error) {
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	st := e.State
	isl := st.CurrentIsland
	if st.Mode != ModeAnchored || isl == nil {
		return Result{}, ErrUnavailable
	}
	is := st.Chart.State(isl.ID)
	if is.Scavenged {
		return Result{}, ErrUnavailable
	}
	rng := e.RNG
	st.Food[provisions.Fresh] += float64(2 + entropy.Intn(rng, 4))
	st.Water[provisions.FreshWater] += float64(2 + entropy.Intn(rng, 4))
	st.Materials.Add(provisions.Timber, entropy.Intn(rng, 5))
	st.Materials.Add(provisions.Rope, entropy.Intn(rng, 4))
	st.Materials.Add(provisions.Canvas, entropy.Intn(rng, 4))
	st.Materials.Add(provisions.Metal, entropy.Intn(rng, 3))

	is.Scavenged = true
	st.Chart.Commit(*isl, is, st.NavError)
	slog.Info("island scavenged", "island", isl.Name, "time", SimTime(st.Day, st.Hour))
	return e.AdvanceTime(scavengeHours, AdvanceOptions{})
}

// HearRumor asks around a port for news of a distant island.
func (e *Engine) HearRumor() (nav.Rumor, error) {
	if err := e.ready(); err != nil {
		return nav.Rumor{}, err
	}
	st := e.State
	if st.Mode != ModeAnchored || st.CurrentIsland == nil || !st.CurrentIsland.Port {
		return nav.Rumor{}, ErrUnavailable
	}
	isl, ok := nav.GenerateRumor(e.Gen, st.X, st.Y, e.RNG)
	if !ok {
		return nav.Rumor{}, ErrUnavailable
	}
	m := st.Chart.UpdateMark(isl, st.Chart.State(isl.ID), st.NavError)
	st.Chart.AddRumor(*m, st.Day, st.Hour)
	return st.Chart.Rumors[len(st.Chart.Rumors)-1], nil
}

// AddChartNote pins a label at the estimated position.
func (e *Engine) AddChartNote(label string) (*nav.Mark, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	st := e.State
	return st.Chart.AddNote(label, st.X, st.Y, st.NavError, st.Day, st.Hour), nil
}

// EstimatedPosition is where the sailor believes the ship is.
func (e *Engine) EstimatedPosition() (x, y float64) {
	st := e.State
	return nav.EstimatedPosition(st.X, st.Y, st.NavError, st.Day, st.Hour, st.WorldSeed)
}
