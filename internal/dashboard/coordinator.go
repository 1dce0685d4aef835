package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitalboard/vitalboard/internal/domain/alerts"
	"github.com/vitalboard/vitalboard/internal/domain/report"
	"github.com/vitalboard/vitalboard/internal/domain/session"
	"github.com/vitalboard/vitalboard/internal/domain/trends"
	"github.com/vitalboard/vitalboard/internal/platform/bus"
)

// State is the per-upload ingestion state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrUploadInFlight is returned when an ingest is requested while another
// upload is still being processed. The client retries after the current one
// settles.
var ErrUploadInFlight = errors.New("an upload is already in flight")

// IngestResult summarizes what one successful ingestion changed.
type IngestResult struct {
	Record     report.LabReportRecord `json:"record"`
	TrendPoint trends.TrendPoint      `json:"trend_point"`
	Alerts     []alerts.AlertRecord   `json:"alerts"`
}

// Coordinator folds one analyzed upload into the dashboard state: it
// updates the session token, appends the report to history, extends the
// trend series, prepends new alerts, and fires the update bus. The store
// mutation and the publish are sequential, so a subscriber woken by the bus
// always observes the fully-updated store.
type Coordinator struct {
	store   *Store
	session *session.Store
	history report.HistoryRepository
	bus     *bus.Bus
	logger  zerolog.Logger
	now     func() time.Time

	stateMu sync.Mutex
	state   State
}

func NewCoordinator(store *Store, sess *session.Store, history report.HistoryRepository, b *bus.Bus, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		session: sess,
		history: history,
		bus:     b,
		logger:  logger,
		now:     time.Now,
	}
}

// State returns the current ingestion state.
func (c *Coordinator) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Upload is the handle for one in-flight ingestion. Begin hands it out to
// exactly one caller at a time; only the holder can settle the upload, so a
// competing caller cannot mistake someone else's Submitting for its own.
type Upload struct {
	c *Coordinator
}

// Begin claims the single upload slot and moves the coordinator into
// Submitting. It must be called before the remote analysis is started so a
// second upload cannot be submitted while one is in flight.
func (c *Coordinator) Begin() (*Upload, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == StateSubmitting {
		return nil, ErrUploadInFlight
	}
	c.state = StateSubmitting
	return &Upload{c: c}, nil
}

func (c *Coordinator) settle(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Ingest claims the upload slot and folds one analysis result in a single
// step, for callers with no remote work between Begin and the fold. It is
// rejected with ErrUploadInFlight while another upload holds the slot.
func (c *Coordinator) Ingest(ctx context.Context, res report.AnalysisResult) (*IngestResult, error) {
	up, err := c.Begin()
	if err != nil {
		return nil, err
	}
	return up.Ingest(ctx, res)
}

// Ingest folds one successful analysis result into the dashboard state and
// settles the upload as Succeeded. Independent read paths are never blocked
// by an ingest.
func (u *Upload) Ingest(ctx context.Context, res report.AnalysisResult) (*IngestResult, error) {
	c := u.c

	if res.PatientToken != "" {
		c.session.Set(res.PatientToken)
	}

	rec := res.Record()
	token, hasToken := c.session.Get()
	if hasToken {
		if err := c.history.Append(ctx, token, rec); err != nil {
			// Best-effort persistence: the dashboard still updates.
			c.logger.Warn().Err(err).Msg("history append failed, save skipped")
		}
	}

	point := c.buildTrendPoint(rec)
	c.store.AppendTrendPoint(point)

	at := c.now()
	var newAlerts []alerts.AlertRecord
	for _, b := range rec.Biomarkers {
		if a, ok := alerts.Derive(b, at); ok {
			newAlerts = append(newAlerts, *a)
		}
	}
	c.store.PrependAlerts(newAlerts)

	// With a token the full history is authoritative; the incremental
	// append above only stands for tokenless sessions or when the
	// history fetch fails.
	if hasToken {
		if hist, err := c.history.ListByToken(ctx, token); err != nil {
			c.logger.Warn().Err(err).Msg("history fetch failed, keeping incremental series")
		} else if derived := trends.Derive(hist); len(derived) > 0 {
			c.store.ReplaceTrends(derived)
		}
	}

	c.settle(StateSucceeded)
	c.bus.Publish()

	return &IngestResult{Record: rec, TrendPoint: point, Alerts: newAlerts}, nil
}

// Fail settles a failed upload and frees the slot. Nothing was mutated;
// the caller surfaces a generic retryable error to the client.
func (u *Upload) Fail(err error) {
	u.c.logger.Error().Err(err).Msg("upload analysis failed")
	u.c.settle(StateFailed)
}

// buildTrendPoint extends the series by one point: start from the last
// known point (or a zero baseline), re-bucket to this record's month, and
// overwrite each tracked value present in this upload. Values absent from
// the upload carry the previous point's value forward.
func (c *Coordinator) buildTrendPoint(rec report.LabReportRecord) trends.TrendPoint {
	point, _ := c.store.LastTrendPoint()
	point.Period = trends.Period(rec)
	if v, ok := trends.FindValue(rec.Biomarkers, trends.MatchVitaminD); ok {
		point.VitaminD = v
	}
	if v, ok := trends.FindValue(rec.Biomarkers, trends.MatchLDL); ok {
		point.LDLCholesterol = v
	}
	return point
}
