package trends

// Baseline returns the demo trend series shown when no session token exists
// or when derivation over the available history yields nothing. Falling
// back here is dashboard policy, not engine behavior: Derive itself returns
// an empty series.
func Baseline() []TrendPoint {
	return []TrendPoint{
		{Period: "2025-05", VitaminD: 21, LDLCholesterol: 165},
		{Period: "2025-07", VitaminD: 24, LDLCholesterol: 158},
		{Period: "2025-09", VitaminD: 28, LDLCholesterol: 149},
	}
}
