package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitalboard/vitalboard/internal/domain/alerts"
	"github.com/vitalboard/vitalboard/internal/domain/report"
	"github.com/vitalboard/vitalboard/internal/domain/session"
	"github.com/vitalboard/vitalboard/internal/domain/trends"
	"github.com/vitalboard/vitalboard/internal/platform/analyzer"
	"github.com/vitalboard/vitalboard/internal/platform/blobstore"
	"github.com/vitalboard/vitalboard/internal/platform/privacy"
	"github.com/vitalboard/vitalboard/internal/platform/research"
)

// Handler exposes the dashboard API: report upload and analysis, history,
// trends, alerts, and stored-file download.
type Handler struct {
	coord    *Coordinator
	store    *Store
	session  *session.Store
	history  report.HistoryRepository
	blobs    blobstore.BlobStore
	analyzer analyzer.Analyzer
	advisor  research.Advisor
	salt     string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHandler(coord *Coordinator, store *Store, sess *session.Store, history report.HistoryRepository, blobs blobstore.BlobStore, an analyzer.Analyzer, adv research.Advisor, salt string, logger zerolog.Logger) *Handler {
	return &Handler{
		coord:    coord,
		store:    store,
		session:  sess,
		history:  history,
		blobs:    blobs,
		analyzer: an,
		advisor:  adv,
		salt:     salt,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyze", h.Analyze)
	api.POST("/analyze_bloodwork", h.Analyze)
	api.GET("/history/:token", h.History)
	api.GET("/trends", h.Trends)
	api.GET("/alerts", h.Alerts)
	api.GET("/files/:name", h.File)
}

// analyzeResponse mirrors the envelope the dashboard client expects.
type analyzeResponse struct {
	Patient          string               `json:"patient"`
	Analysis         analysisPayload      `json:"analysis"`
	Status           string               `json:"status"`
	OriginalFilename string               `json:"original_filename"`
	UploadedAt       string               `json:"uploaded_at"`
	LabDate          string               `json:"lab_date"`
	FileURL          string               `json:"file_url"`
	TrendPoint       trends.TrendPoint    `json:"trend_point"`
	Alerts           []alerts.AlertRecord `json:"alerts"`
}

type analysisPayload struct {
	Biomarkers []report.BiomarkerReading `json:"biomarkers"`
}

// Analyze accepts one report upload: the file itself plus its pre-extracted
// text (OCR happens upstream). The file is stored, the text scrubbed and
// analyzed, and the result folded into history, trends, and alerts.
func (h *Handler) Analyze(c echo.Context) error {
	up, err := h.coord.Begin()
	if err != nil {
		if errors.Is(err, ErrUploadInFlight) {
			return echo.NewHTTPError(http.StatusConflict, "an upload is already being processed")
		}
		return err
	}

	ctx := c.Request().Context()

	file, err := c.FormFile("file")
	if err != nil {
		up.Fail(err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	text := c.FormValue("text")

	src, err := file.Open()
	if err != nil {
		up.Fail(err)
		return echo.NewHTTPError(http.StatusBadGateway, "could not read upload, please try again")
	}
	defer src.Close()

	ext := filepath.Ext(file.Filename)
	key := fmt.Sprintf("%d-%s%s", h.now().UnixMilli(), strings.ReplaceAll(uuid.New().String(), "-", ""), ext)
	contentType := file.Header.Get("Content-Type")
	if _, err := h.blobs.Put(ctx, key, file.Filename, contentType, src); err != nil {
		up.Fail(err)
		return echo.NewHTTPError(http.StatusBadGateway, "could not store upload, please try again")
	}

	scrubbed, token := privacy.Scrub(h.salt, text)

	labDate := report.ExtractLabDate(scrubbed)
	if labDate == "" {
		labDate = report.ExtractDateFromFilename(file.Filename)
	}
	uploadedAt := h.now().UTC()
	if labDate == "" {
		labDate = uploadedAt.Format("2006-01-02")
	}

	previous := h.previousBiomarkers(c, token)
	biomarkers, err := h.analyzer.Analyze(ctx, scrubbed, previous)
	if err != nil {
		// An analysis outage degrades to the demo reading set rather
		// than failing the upload.
		h.logger.Warn().Err(err).Msg("analysis provider unavailable, using demo biomarkers")
		biomarkers = analyzer.DemoBiomarkers()
	}
	biomarkers = research.Annotate(ctx, h.advisor, biomarkers)

	res := report.AnalysisResult{
		PatientToken:     token,
		OriginalFilename: file.Filename,
		UploadedAt:       uploadedAt.Format(time.RFC3339),
		LabDate:          labDate,
		FileURL:          "/api/files/" + key,
		Biomarkers:       biomarkers,
	}

	ingested, err := up.Ingest(ctx, res)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "analysis failed, please try again")
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Patient:          token,
		Analysis:         analysisPayload{Biomarkers: biomarkers},
		Status:           "report stored",
		OriginalFilename: file.Filename,
		UploadedAt:       res.UploadedAt,
		LabDate:          labDate,
		FileURL:          res.FileURL,
		TrendPoint:       ingested.TrendPoint,
		Alerts:           ingested.Alerts,
	})
}

// previousBiomarkers returns the most recent prior readings for token, used
// as analysis context. Missing history is not an error.
func (h *Handler) previousBiomarkers(c echo.Context, token string) []report.BiomarkerReading {
	if token == "" {
		return nil
	}
	hist, err := h.history.ListByToken(c.Request().Context(), token)
	if err != nil || len(hist) == 0 {
		return nil
	}
	return hist[len(hist)-1].Biomarkers
}

// History returns the append-only report history for a token. A storage
// failure degrades to an empty history, never an error page; the client
// falls back to baseline trends on its own.
func (h *Handler) History(c echo.Context) error {
	token := session.Sanitize(c.Param("token"))
	hist, err := h.history.ListByToken(c.Request().Context(), token)
	if err != nil {
		h.logger.Warn().Err(err).Str("token", token).Msg("history fetch failed, returning empty history")
		hist = nil
	}
	if hist == nil {
		hist = []report.LabReportRecord{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient": token,
		"history": hist,
	})
}

// Trends returns the monthly trend series. With a session token the series
// is re-derived from the full history; otherwise the live store snapshot is
// used. An empty result falls back to the baseline demo series.
func (h *Handler) Trends(c echo.Context) error {
	if token, ok := h.session.Get(); ok {
		if hist, err := h.history.ListByToken(c.Request().Context(), token); err == nil {
			if derived := trends.Derive(hist); len(derived) > 0 {
				return c.JSON(http.StatusOK, derived)
			}
		} else {
			h.logger.Warn().Err(err).Msg("history fetch failed, falling back to baseline trends")
		}
	}
	if snapshot := h.store.Trends(); len(snapshot) > 0 {
		return c.JSON(http.StatusOK, snapshot)
	}
	return c.JSON(http.StatusOK, trends.Baseline())
}

// Alerts returns the live alert list, or the baseline demo list when no
// alert has been derived yet.
func (h *Handler) Alerts(c echo.Context) error {
	if snapshot := h.store.Alerts(); len(snapshot) > 0 {
		return c.JSON(http.StatusOK, snapshot)
	}
	return c.JSON(http.StatusOK, alerts.Baseline())
}

// File streams a stored report file.
func (h *Handler) File(c echo.Context) error {
	blob, rc, err := h.blobs.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "could not read file")
	}
	defer rc.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.FileName))
	return c.Stream(http.StatusOK, contentType, rc)
}
