package savegame

import "log/slog"

// legacyKeys maps browser-save field names onto document names.
var legacyKeys = map[string]string{
	"worldSeed":        "world_seed",
	"foodStocks":       "food",
	"waterStocks":      "water",
	"mat":              "materials",
	"navError":         "nav_error",
	"ropeWear":         "rope_wear",
	"calmHours":        "calm_hours",
	"tutorialPhase":    "tutorial_phase",
	"noEncounters":     "no_encounters",
	"locName":          "location_name",
	"curIsland":        "current_island",
	"spd":              "speed",
	"state":            "mode",
	"islandState":      "island_state",
	"chartMarks":       "chart_marks",
	"lootedIslands":    "looted",
	"scavengedIslands": "scavenged_coords",
}

// Legacy top-level fields that move into nested groups.
var (
	legacyWeather = map[string]string{
		"windDir":  "wind_dir",
		"windSpd":  "wind_speed",
		"baro":     "baro",
		"baroT":    "baro_target",
		"beaufort": "beaufort",
		"seaState": "sea_state",
		"wx":       "category",
	}
	legacyCrew = map[string]string{
		"hp":     "hp",
		"san":    "sanity",
		"morale": "morale",
		"scurvy": "scurvy",
	}
	// Browser-only fields with no place in the document.
	legacyDropped = []string{"chunkCache", "foodQ", "waterQ", "tutorialIsland", "inventory", "chartedConstellations", "treasureHint"}
)

// migrate upgrades a decoded document in place. Current documents pass
// through untouched.
func migrate(raw map[string]any) {
	if _, ok := raw["version"]; ok {
		return
	}
	slog.Info("migrating legacy save")

	// Scalar food and water predate typed stocks and fold into salt
	// rations and fresh water.
	legacyFood, hasFood := raw["food"].(float64)
	legacyWater, hasWater := raw["water"].(float64)
	if hasFood {
		delete(raw, "food")
	}
	if hasWater {
		delete(raw, "water")
	}

	if seed, ok := raw["seed"]; ok {
		if _, has := raw["worldSeed"]; !has {
			raw["worldSeed"] = seed
		}
		delete(raw, "seed")
	}
	for old, cur := range legacyKeys {
		if v, ok := raw[old]; ok {
			raw[cur] = v
			delete(raw, old)
		}
	}

	if hasFood {
		food := ensureObject(raw, "food")
		food["salt"] = number(food["salt"]) + legacyFood
	}
	if hasWater {
		water := ensureObject(raw, "water")
		water["fresh"] = number(water["fresh"]) + legacyWater
	}
	ensureObject(raw, "food")
	ensureObject(raw, "water")

	nest(raw, "weather", legacyWeather)
	nest(raw, "crew", legacyCrew)

	// Fog was an object of cleared keys.
	if fog, ok := raw["fogCleared"].(map[string]any); ok {
		keys := make([]any, 0, len(fog))
		for k, v := range fog {
			if b, _ := v.(bool); b {
				keys = append(keys, k)
			}
		}
		raw["fog_cleared"] = keys
	}
	delete(raw, "fogCleared")

	if marks, ok := raw["chart_marks"].(map[string]any); ok {
		for _, m := range marks {
			if mark, ok := m.(map[string]any); ok {
				rename(mark, "estX", "est_x")
				rename(mark, "estY", "est_y")
			}
		}
	}
	if rumors, ok := raw["rumors"].([]any); ok {
		for _, r := range rumors {
			if rumor, ok := r.(map[string]any); ok {
				rename(rumor, "estX", "est_x")
				rename(rumor, "estY", "est_y")
			}
		}
	}

	if sh, ok := raw["ship"].(map[string]any); ok {
		rename(sh, "w", "width")
		rename(sh, "h", "height")
	}
	if raw["maneuver"] == nil {
		delete(raw, "maneuver")
	}
	if raw["current_island"] == nil {
		delete(raw, "current_island")
	}
	for _, k := range legacyDropped {
		delete(raw, k)
	}
	raw["version"] = float64(Version)
}

func ensureObject(raw map[string]any, key string) map[string]any {
	obj, ok := raw[key].(map[string]any)
	if !ok {
		obj = make(map[string]any)
		raw[key] = obj
	}
	return obj
}

func nest(raw map[string]any, group string, fields map[string]string) {
	obj := ensureObject(raw, group)
	for old, cur := range fields {
		if v, ok := raw[old]; ok {
			if _, set := obj[cur]; !set {
				obj[cur] = v
			}
			delete(raw, old)
		}
	}
}

func rename(obj map[string]any, old, cur string) {
	if v, ok := obj[old]; ok {
		if _, set := obj[cur]; !set {
			obj[cur] = v
		}
		delete(obj, old)
	}
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
