package alerts

import "time"

// Baseline returns the demo alert list used for sessions without a token.
func Baseline() []AlertRecord {
	return []AlertRecord{
		{
			ID:        "baseline-vitamin-d",
			Biomarker: "Vitamin D",
			Status:    StatusLow,
			Message:   "Vitamin D is Low",
			Timestamp: time.Date(2025, time.September, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "baseline-ldl",
			Biomarker: "LDL Cholesterol",
			Status:    StatusHigh,
			Message:   "LDL Cholesterol is High",
			Timestamp: time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC),
		},
	}
}
