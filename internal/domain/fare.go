package domain

// DefaultRatePerKm applies when a bus category has no rate table entry.
const DefaultRatePerKm = 2.0

// FareTable maps bus category to a per-kilometre rate.
type FareTable struct {
	rates map[string]float64
}

func NewFareTable(rates map[string]float64) FareTable {
	copied := make(map[string]float64, len(rates))
	for k, v := range rates {
		copied[k] = v
	}
	return FareTable{rates: copied}
}

// Rate returns the category's rate, or DefaultRatePerKm when absent.
func (ft FareTable) Rate(category string) float64 {
	if r, ok := ft.rates[category]; ok {
		return r
	}
	return DefaultRatePerKm
}

// Fare prices a segment distance. The amount truncates to whole currency
// units, matching the granularity of the fare data.
func (ft FareTable) Fare(category string, distanceKm int) int {
	return int(ft.Rate(category) * float64(distanceKm))
}

// SegmentDistance is the cumulative-km difference between two stops of the
// same trip. Positive whenever from precedes to, per the route invariant.
func SegmentDistance(from, to TripStop) int {
	return to.CumulativeKm - from.CumulativeKm
}
