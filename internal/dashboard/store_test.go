package dashboard

import (
	"testing"
	"time"

	"github.com/vitalboard/vitalboard/internal/domain/alerts"
	"github.com/vitalboard/vitalboard/internal/domain/trends"
)

func TestStore_AppendTrendPointNotResorted(t *testing.T) {
	s := NewStore()
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-03", VitaminD: 20})
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-01", VitaminD: 15})

	got := s.Trends()
	if len(got) != 2 || got[0].Period != "2025-03" || got[1].Period != "2025-01" {
		t.Errorf("append must preserve insertion order, got %+v", got)
	}
}

func TestStore_ReplaceTrends(t *testing.T) {
	s := NewStore()
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-03"})
	s.ReplaceTrends([]trends.TrendPoint{{Period: "2025-01"}, {Period: "2025-02"}})

	got := s.Trends()
	if len(got) != 2 || got[0].Period != "2025-01" {
		t.Errorf("ReplaceTrends did not swap the series: %+v", got)
	}
}

func TestStore_LastTrendPoint(t *testing.T) {
	s := NewStore()
	if _, ok := s.LastTrendPoint(); ok {
		t.Error("empty store should have no last point")
	}
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-01"})
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-02"})
	if last, ok := s.LastTrendPoint(); !ok || last.Period != "2025-02" {
		t.Errorf("LastTrendPoint = %+v, %v", last, ok)
	}
}

func TestStore_PrependAlerts_MostRecentFirst(t *testing.T) {
	s := NewStore()
	at := time.Now()

	s.PrependAlerts([]alerts.AlertRecord{{ID: "old", Message: "old"}})
	// Two alerts from one ingestion, in reading order: the second one
	// processed must end up first overall.
	s.PrependAlerts([]alerts.AlertRecord{
		{ID: "a", Message: "Vitamin D is Low", Timestamp: at},
		{ID: "b", Message: "Ferritin is Low", Timestamp: at},
	})

	got := s.Alerts()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "old" {
		t.Errorf("alert order = [%s %s %s], want [b a old]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	s.AppendTrendPoint(trends.TrendPoint{Period: "2025-01", VitaminD: 20})
	s.PrependAlerts([]alerts.AlertRecord{{ID: "a"}})

	trendSnap := s.Trends()
	trendSnap[0].VitaminD = 999
	alertSnap := s.Alerts()
	alertSnap[0].ID = "mutated"

	if s.Trends()[0].VitaminD != 20 {
		t.Error("mutating a trend snapshot leaked into the store")
	}
	if s.Alerts()[0].ID != "a" {
		t.Error("mutating an alert snapshot leaked into the store")
	}
}
