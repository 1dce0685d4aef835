package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// historyRepoPG persists history records as JSONB rows keyed by the opaque
// patient token, ordered by insertion time.
type historyRepoPG struct{ pool *pgxpool.Pool }

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

// Schema is the DDL for the lab_report table. Applied by the serve command
// on startup when a database is configured.
const Schema = `
CREATE TABLE IF NOT EXISTS lab_report (
	id            UUID PRIMARY KEY,
	patient_token TEXT NOT NULL,
	record        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_lab_report_token ON lab_report (patient_token, created_at);
`

func (r *historyRepoPG) Append(ctx context.Context, token string, rec LabReportRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO lab_report (id, patient_token, record, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), token, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert lab report: %w", err)
	}
	return nil
}

func (r *historyRepoPG) ListByToken(ctx context.Context, token string) ([]LabReportRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT record FROM lab_report WHERE patient_token = $1 ORDER BY created_at`, token)
	if err != nil {
		return nil, fmt.Errorf("query lab reports: %w", err)
	}
	defer rows.Close()

	var out []LabReportRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan lab report: %w", err)
		}
		var rec LabReportRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			// Malformed rows are excluded, not fatal.
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
