// Package ship models the vessel as a cellular grid anchored on a keel.
// Every block must connect back to the keel through 4-neighbour adjacency;
// anything that loses that path falls into the sea.
package ship

// Function is what a block does for the ship.
type Function uint8

const (
	FuncKeel Function = iota
	FuncHull
	FuncArmor
	FuncSail
	FuncStay
	FuncBallast
	FuncWater
	FuncFood
	FuncPump
	FuncRain
	FuncCelestial
)

var functionNames = map[Function]string{
	FuncKeel:      "keel",
	FuncHull:      "hull",
	FuncArmor:     "armor",
	FuncSail:      "sail",
	FuncStay:      "stay",
	FuncBallast:   "ballast",
	FuncWater:     "water",
	FuncFood:      "food",
	FuncPump:      "pump",
	FuncRain:      "rain",
	FuncCelestial: "celestial",
}

func (f Function) String() string {
	if n, ok := functionNames[f]; ok {
		return n
	}
	return "unknown"
}

// Block is a static block definition.
type Block struct {
	ID     string
	Name   string
	HP     int
	Weight float64
	Func   Function
	Cost   map[string]int

	Power    float64 // sail
	Capacity float64 // water, food, rain
	Clear    float64 // pump: bilge cleared per hour
	Accuracy float64 // celestial instruments
	Charts   int     // star chart table
}

// Block IDs.
const (
	Keel          = "keel"
	Plank         = "plank"
	Iron          = "iron"
	Mast          = "mast"
	Stay          = "stay"
	Ballast       = "ballast"
	Cask          = "cask"
	Pantry        = "pantry"
	Pump          = "pump"
	RainCollector = "rain_collector"
	Telescope     = "telescope"
	Astrolabe     = "astrolabe"
	StarChart     = "star_chart"
)

// Catalog holds every buildable block, plus the keel.
var Catalog = map[string]Block{
	Keel:          {ID: Keel, Name: "Keel", HP: 9999, Func: FuncKeel},
	Plank:         {ID: Plank, Name: "Deck Plank", HP: 20, Weight: 1, Func: FuncHull, Cost: map[string]int{"timber": 1}},
	Iron:          {ID: Iron, Name: "Iron Plating", HP: 80, Weight: 4, Func: FuncArmor, Cost: map[string]int{"metal": 2}},
	Mast:          {ID: Mast, Name: "Standard Mast", HP: 40, Weight: 2, Func: FuncSail, Power: 15, Cost: map[string]int{"timber": 3, "canvas": 2, "rope": 1}},
	Stay:          {ID: Stay, Name: "Rope Stay", HP: 15, Weight: 0.4, Func: FuncStay, Cost: map[string]int{"rope": 2}},
	Ballast:       {ID: Ballast, Name: "Ballast", HP: 30, Weight: 6, Func: FuncBallast, Cost: map[string]int{"metal": 3}},
	Cask:          {ID: Cask, Name: "Water Cask", HP: 15, Weight: 2, Func: FuncWater, Capacity: 15, Cost: map[string]int{"timber": 2}},
	Pantry:        {ID: Pantry, Name: "Pantry Box", HP: 15, Weight: 2, Func: FuncFood, Capacity: 20, Cost: map[string]int{"timber": 3}},
	Pump:          {ID: Pump, Name: "Bilge Pump", HP: 30, Weight: 3, Func: FuncPump, Clear: 5, Cost: map[string]int{"timber": 2, "metal": 2}},
	RainCollector: {ID: RainCollector, Name: "Rain Collector", HP: 20, Weight: 1, Func: FuncRain, Capacity: 3, Cost: map[string]int{"timber": 2, "canvas": 1}},
	Telescope:     {ID: Telescope, Name: "Ship's Telescope", HP: 15, Weight: 2, Func: FuncCelestial, Accuracy: 0.8, Cost: map[string]int{"timber": 3, "metal": 1, "glass": 1}},
	Astrolabe:     {ID: Astrolabe, Name: "Brass Astrolabe", HP: 10, Weight: 1, Func: FuncCelestial, Accuracy: 0.6, Cost: map[string]int{"metal": 3, "rope": 1}},
	StarChart:     {ID: StarChart, Name: "Star Chart Table", HP: 12, Weight: 1, Func: FuncCelestial, Charts: 5, Cost: map[string]int{"timber": 2, "canvas": 2}},
}

// Lookup returns the definition for id.
func Lookup(id string) (Block, bool) {
	b, ok := Catalog[id]
	return b, ok
}
