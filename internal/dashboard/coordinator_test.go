package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalboard/vitalboard/internal/domain/report"
	"github.com/vitalboard/vitalboard/internal/domain/session"
	"github.com/vitalboard/vitalboard/internal/platform/bus"
)

// failingHistoryRepo simulates a history backend outage.
type failingHistoryRepo struct{}

func (failingHistoryRepo) Append(context.Context, string, report.LabReportRecord) error {
	return errors.New("history unavailable")
}

func (failingHistoryRepo) ListByToken(context.Context, string) ([]report.LabReportRecord, error) {
	return nil, errors.New("history unavailable")
}

func newCoordinator(history report.HistoryRepository) (*Coordinator, *Store, *session.Store, *bus.Bus) {
	store := NewStore()
	sess := session.NewStore(nil)
	b := bus.New(zerolog.Nop())
	c := NewCoordinator(store, sess, history, b, zerolog.Nop())
	c.now = func() time.Time { return time.Date(2025, time.November, 21, 10, 0, 0, 0, time.UTC) }
	return c, store, sess, b
}

func TestIngest_RoundTrip(t *testing.T) {
	c, store, sess, b := newCoordinator(report.NewInMemoryHistoryRepo())

	published := false
	b.Subscribe(func() {
		published = true
		// The subscriber must observe the fully-updated store.
		if len(store.Trends()) == 0 || len(store.Alerts()) == 0 {
			t.Error("subscriber observed a partially-updated store")
		}
	})

	res := report.AnalysisResult{
		PatientToken:     "PT_abc",
		OriginalFilename: "labs.pdf",
		UploadedAt:       "2025-11-21T10:00:00Z",
		LabDate:          "2025-11-21",
		Biomarkers: []report.BiomarkerReading{
			{Name: "Vitamin D", Value: 18, Unit: "ng/mL", Flag: "LOW"},
		},
	}

	ingested, err := c.Ingest(context.Background(), res)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	trendsNow := store.Trends()
	if len(trendsNow) != 1 || trendsNow[0].Period != "2025-11" || trendsNow[0].VitaminD != 18 {
		t.Errorf("trends = %+v, want one 2025-11 point with vitaminD 18", trendsNow)
	}

	alertsNow := store.Alerts()
	if len(alertsNow) != 1 {
		t.Fatalf("alerts = %+v, want exactly one", alertsNow)
	}
	if alertsNow[0].Status != "low" || alertsNow[0].Message != "Vitamin D is Low" {
		t.Errorf("alert = %+v", alertsNow[0])
	}

	if token, ok := sess.Get(); !ok || token != "PT_abc" {
		t.Errorf("session token = %q, %v", token, ok)
	}
	if !published {
		t.Error("update bus was not fired")
	}
	if c.State() != StateSucceeded {
		t.Errorf("state = %v, want succeeded", c.State())
	}
	if len(ingested.Alerts) != 1 {
		t.Errorf("ingest result alerts = %+v", ingested.Alerts)
	}
}

func TestIngest_CarriesLastValuesForward(t *testing.T) {
	c, store, _, _ := newCoordinator(report.NewInMemoryHistoryRepo())
	ctx := context.Background()

	_, err := c.Ingest(ctx, report.AnalysisResult{
		UploadedAt: "2025-01-10T00:00:00Z",
		Biomarkers: []report.BiomarkerReading{{Name: "LDL Cholesterol", Value: 160}},
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	_, err = c.Ingest(ctx, report.AnalysisResult{
		UploadedAt: "2025-03-10T00:00:00Z",
		Biomarkers: []report.BiomarkerReading{{Name: "Vitamin D", Value: 22}},
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	got := store.Trends()
	if len(got) != 2 {
		t.Fatalf("trends = %+v, want 2 points", got)
	}
	// Tokenless incremental append: the second point keeps the LDL value
	// from the first because this upload did not measure it.
	if got[1].Period != "2025-03" || got[1].VitaminD != 22 || got[1].LDLCholesterol != 160 {
		t.Errorf("second point = %+v", got[1])
	}
}

func TestIngest_TokenMakesFullHistoryAuthoritative(t *testing.T) {
	history := report.NewInMemoryHistoryRepo()
	c, store, _, _ := newCoordinator(history)
	ctx := context.Background()

	_, err := c.Ingest(ctx, report.AnalysisResult{
		PatientToken: "PT_abc",
		UploadedAt:   "2025-03-10T00:00:00Z",
		LabDate:      "2025-03-10",
		Biomarkers:   []report.BiomarkerReading{{Name: "Vitamin D", Value: 22}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	_, err = c.Ingest(ctx, report.AnalysisResult{
		PatientToken: "PT_abc",
		UploadedAt:   "2025-01-05T00:00:00Z",
		LabDate:      "2025-01-05",
		Biomarkers:   []report.BiomarkerReading{{Name: "LDL Cholesterol", Value: 160}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// With a token, the series is re-derived from full history and comes
	// out sorted even though the uploads arrived out of order.
	got := store.Trends()
	if len(got) != 2 || got[0].Period != "2025-01" || got[1].Period != "2025-03" {
		t.Errorf("trends = %+v, want history-derived ascending order", got)
	}
	// Full-history derivation uses the sentinel zero, not carry-forward.
	if got[1].LDLCholesterol != 0 {
		t.Errorf("derived point = %+v, want sentinel zero LDL", got[1])
	}
}

func TestIngest_HistoryOutageDoesNotFailIngest(t *testing.T) {
	c, store, sess, _ := newCoordinator(failingHistoryRepo{})
	sess.Set("PT_abc")

	_, err := c.Ingest(context.Background(), report.AnalysisResult{
		UploadedAt: "2025-02-01T00:00:00Z",
		Biomarkers: []report.BiomarkerReading{{Name: "Vitamin D", Value: 30}},
	})
	if err != nil {
		t.Fatalf("Ingest must not fail on a history outage: %v", err)
	}
	// The incremental series stands in for the unavailable history.
	if got := store.Trends(); len(got) != 1 || got[0].VitaminD != 30 {
		t.Errorf("trends = %+v", got)
	}
}

func TestBegin_RejectsConcurrentUpload(t *testing.T) {
	c, _, _, _ := newCoordinator(report.NewInMemoryHistoryRepo())

	up, err := c.Begin()
	if err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	if _, err := c.Begin(); !errors.Is(err, ErrUploadInFlight) {
		t.Errorf("second Begin = %v, want ErrUploadInFlight", err)
	}

	// Settling the upload frees the slot.
	up.Fail(errors.New("remote analysis down"))
	if c.State() != StateFailed {
		t.Errorf("state = %v, want failed", c.State())
	}
	if _, err := c.Begin(); err != nil {
		t.Errorf("Begin after settle: %v", err)
	}
}

func TestIngest_RejectedWhileAnotherUploadHoldsSlot(t *testing.T) {
	c, store, _, _ := newCoordinator(report.NewInMemoryHistoryRepo())

	up, err := c.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// A competitor skipping Begin must not interleave with the holder.
	res := report.AnalysisResult{
		UploadedAt: "2025-02-01T00:00:00Z",
		Biomarkers: []report.BiomarkerReading{{Name: "Vitamin D", Value: 30}},
	}
	if _, err := c.Ingest(context.Background(), res); !errors.Is(err, ErrUploadInFlight) {
		t.Fatalf("Ingest during another upload = %v, want ErrUploadInFlight", err)
	}
	if len(store.Trends()) != 0 {
		t.Error("rejected ingest mutated the store")
	}

	// The holder's own ingest still goes through.
	if _, err := up.Ingest(context.Background(), res); err != nil {
		t.Fatalf("holder Ingest: %v", err)
	}
	if len(store.Trends()) != 1 {
		t.Errorf("trends = %+v, want the holder's point", store.Trends())
	}
}

func TestFail_LeavesStoresUntouched(t *testing.T) {
	c, store, sess, _ := newCoordinator(report.NewInMemoryHistoryRepo())

	up, err := c.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	up.Fail(errors.New("boom"))

	if len(store.Trends()) != 0 || len(store.Alerts()) != 0 {
		t.Error("failed upload mutated the aggregation store")
	}
	if _, ok := sess.Get(); ok {
		t.Error("failed upload set a session token")
	}
}
