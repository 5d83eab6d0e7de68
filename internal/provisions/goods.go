// Package provisions tracks what is aboard to eat, drink, and build with.
// Stocks are measured in days of ration for one sailor.
package provisions

// FoodType enumerates kinds of food.
type FoodType string

const (
	Salt   FoodType = "salt"
	Fresh  FoodType = "fresh"
	Citrus FoodType = "citrus"
)

// WaterType enumerates kinds of drinking water.
type WaterType string

const (
	FreshWater WaterType = "fresh"
	Rain       WaterType = "rain"
	Distilled  WaterType = "distilled"
	Exotic     WaterType = "exotic"
)

// FoodProfile describes how a food keeps and what it does to the eater.
type FoodProfile struct {
	SpoilRate  float64 // days lost per hour before conditions
	ScurvyRate float64 // scurvy change per day eaten
	Morale     float64 // morale change per day eaten
}

// WaterProfile describes a water source.
type WaterProfile struct {
	SpoilRate float64
	Morale    float64
}

var Foods = map[FoodType]FoodProfile{
	Salt:   {SpoilRate: 0.001, ScurvyRate: 1, Morale: 0},
	Fresh:  {SpoilRate: 0.5, ScurvyRate: -0.5, Morale: 2},
	Citrus: {SpoilRate: 1, ScurvyRate: -2, Morale: 1},
}

var Waters = map[WaterType]WaterProfile{
	FreshWater: {SpoilRate: 0, Morale: 5},
	Rain:       {SpoilRate: 0.01, Morale: 1},
	Distilled:  {SpoilRate: 0, Morale: -2},
	Exotic:     {SpoilRate: 0, Morale: 10},
}

// Consumption order: the food that spoils fastest goes first, and the
// best water is drunk before the worst.
var (
	FoodPriority  = []FoodType{Citrus, Fresh, Salt}
	WaterPriority = []WaterType{FreshWater, Exotic, Rain, Distilled}
)

// HourlyRation is one hour's share of a day's food or water.
const HourlyRation = 1.0 / 24.0

// FoodStocks holds food by type.
type FoodStocks map[FoodType]float64

// NewFoodStocks returns stocks with every type present.
func NewFoodStocks(salt, fresh, citrus float64) FoodStocks {
	return FoodStocks{Salt: salt, Fresh: fresh, Citrus: citrus}
}

// Consume draws need from the stocks in priority order. Returns what was
// eaten per type and the unmet remainder.
func (s FoodStocks) Consume(need float64) (eaten map[FoodType]float64, shortfall float64) {
	eaten = make(map[FoodType]float64, len(FoodPriority))
	for _, ft := range FoodPriority {
		if need <= 0 {
			break
		}
		if have := s[ft]; have > 0 {
			take := min(need, have)
			s[ft] = have - take
			eaten[ft] = take
			need -= take
		}
	}
	return eaten, max(0, need)
}

// Spoil decays every stock by its rate scaled by mult.
func (s FoodStocks) Spoil(mult float64) {
	for ft, have := range s {
		s[ft] = max(0, have-Foods[ft].SpoilRate*mult)
	}
}

// Total returns the days of food aboard.
func (s FoodStocks) Total() float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}

// WaterStocks holds water by type.
type WaterStocks map[WaterType]float64

// NewWaterStocks returns stocks with every type present.
func NewWaterStocks(fresh, rain, distilled, exotic float64) WaterStocks {
	return WaterStocks{FreshWater: fresh, Rain: rain, Distilled: distilled, Exotic: exotic}
}

// Consume draws need from the stocks in priority order.
func (s WaterStocks) Consume(need float64) (drunk map[WaterType]float64, shortfall float64) {
	drunk = make(map[WaterType]float64, len(WaterPriority))
	for _, wt := range WaterPriority {
		if need <= 0 {
			break
		}
		if have := s[wt]; have > 0 {
			take := min(need, have)
			s[wt] = have - take
			drunk[wt] = take
			need -= take
		}
	}
	return drunk, max(0, need)
}

// Spoil applies each water type's fixed decay.
func (s WaterStocks) Spoil() {
	for wt, have := range s {
		s[wt] = max(0, have-Waters[wt].SpoilRate)
	}
}

// Total returns the days of water aboard.
func (s WaterStocks) Total() float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}

// SpoilMultiplier scales food decay: warmth and a wet hold both speed rot.
// bilgeFraction is clamped to [0, 1].
func SpoilMultiplier(heat, bilgeFraction float64) float64 {
	bilgeFraction = min(1, max(0, bilgeFraction))
	return 1 + 0.1*heat + 0.2*bilgeFraction
}
