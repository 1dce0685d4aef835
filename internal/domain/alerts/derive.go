// Package alerts turns flagged biomarker readings into the user-facing
// alert records shown in the dashboard's alert panel, newest first.
package alerts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalboard/vitalboard/internal/domain/report"
)

// Alert statuses.
const (
	StatusLow  = "low"
	StatusHigh = "high"
)

// AlertRecord is a derived notice that one reading fell outside its
// reference range. IDs are unique for the process lifetime; records are
// never removed automatically.
type AlertRecord struct {
	ID        string    `json:"id"`
	Biomarker string    `json:"biomarker"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Derive produces an alert for a reading flagged low or high
// (case-insensitive), with the message "<name> is Low" / "<name> is High".
// Readings with any other flag, including none, yield no alert.
func Derive(r report.BiomarkerReading, at time.Time) (*AlertRecord, bool) {
	var status, word string
	switch strings.ToLower(r.Flag) {
	case StatusLow:
		status, word = StatusLow, "Low"
	case StatusHigh:
		status, word = StatusHigh, "High"
	default:
		return nil, false
	}
	return &AlertRecord{
		ID:        uuid.New().String(),
		Biomarker: r.Name,
		Status:    status,
		Message:   r.Name + " is " + word,
		Timestamp: at,
	}, true
}
