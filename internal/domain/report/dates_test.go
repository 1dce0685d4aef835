package report

import "testing"

func TestExtractLabDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled iso", "Collection Date: 2025-11-21\nVitamin D 18", "2025-11-21"},
		{"labeled slash", "Report Date: 2025/11/21", "2025-11-21"},
		{"labeled us", "Date of Service - 11/21/2025", "2025-11-21"},
		{"labeled long month", "Collected: November 21, 2025", "2025-11-21"},
		{"bare iso date", "results from 2025-03-05 attached", "2025-03-05"},
		{"bare month name", "Drawn on Mar 5, 2025 at the clinic", "2025-03-05"},
		{"no date", "Vitamin D 18 ng/mL LOW", ""},
		{"unparseable candidate", "Date: 9999-99-99", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLabDate(tt.text); got != tt.want {
				t.Errorf("ExtractLabDate(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDateFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"iso dashes", "labs 2025-11-21.pdf", "2025-11-21"},
		{"iso dots", "report.2025.11.21.pdf", "2025-11-21"},
		{"iso compact", "bloodwork_20251121.pdf", "2025-11-21"},
		{"separated ddmmyy", "labs 21-11-25.pdf", "2025-11-21"},
		{"compact ddmmyy", "scan_211125.pdf", "2025-11-21"},
		{"compact yymmdd", "scan_321121.pdf", "2032-11-21"},
		{"path stripped", "/tmp/uploads/2025-11-21 panel.pdf", "2025-11-21"},
		{"no date", "latest labs.pdf", ""},
		{"impossible date", "report 2025-13-45.pdf", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDateFromFilename(tt.filename); got != tt.want {
				t.Errorf("ExtractDateFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestTwoDigitDate_PrefersDayFirst(t *testing.T) {
	// 05-03-25 is valid both as DDMMYY and YYMMDD; day-first wins.
	if got := twoDigitDate("05", "03", "25"); got != "2025-03-05" {
		t.Errorf("twoDigitDate = %q, want DDMMYY reading", got)
	}
}

func TestParseDateString_TrimsWhitespace(t *testing.T) {
	if got := parseDateString("  2025-11-21  "); got != "2025-11-21" {
		t.Errorf("parseDateString = %q", got)
	}
}
