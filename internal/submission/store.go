// Package submission records every quote sent to the CRM so failed sends can
// be retried later.
package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/quote-estimator/internal/crm"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

const defaultListLimit = 100

var ErrNotFound = errors.New("submission not found")

// Record is one stored submission.
type Record struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	PipelineKey   string      `json:"pipelineKey"`
	FinalTotal    float64     `json:"finalTotal"`
	Payload       crm.Payload `json:"payload"`
	Status        Status      `json:"status"`
	Attempts      int         `json:"attempts"`
	LastError     string      `json:"lastError,omitempty"`
	ContactID     string      `json:"contactId,omitempty"`
	OpportunityID string      `json:"opportunityId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Create stores p as a pending submission.
func (s *Store) Create(ctx context.Context, p crm.Payload) (Record, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Record{}, fmt.Errorf("encode submission payload: %w", err)
	}

	id := uuid.NewString()
	now := s.timestamp()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, email, pipeline_key, final_total, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.Contact.Email, p.PipelineKey, p.FinalTotal, string(body), StatusPending, now, now); err != nil {
		return Record{}, fmt.Errorf("insert submission: %w", err)
	}

	return s.Get(ctx, id)
}

// MarkSent records a successful attempt.
func (s *Store) MarkSent(ctx context.Context, id, contactID, opportunityID string) error {
	return s.update(ctx, id, `
		UPDATE submissions
		SET status = ?, attempts = attempts + 1, last_error = '', contact_id = ?, opportunity_id = ?, updated_at = ?
		WHERE id = ?
	`, StatusSent, contactID, opportunityID, s.timestamp(), id)
}

// MarkFailed records a failed attempt.
func (s *Store) MarkFailed(ctx context.Context, id, reason string) error {
	return s.update(ctx, id, `
		UPDATE submissions
		SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`, StatusFailed, reason, s.timestamp(), id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
	SELECT id, email, pipeline_key, final_total, payload, status, attempts,
	       last_error, contact_id, opportunity_id, created_at, updated_at
	FROM submissions
`

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get submission %s: %w", id, err)
	}
	return rec, nil
}

// List returns submissions oldest first. An empty status lists every status;
// a non-positive limit means the default page size.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var where []string
	var args []any
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

// ListRetryable returns failed submissions, and pending ones not touched
// since staleBefore, oldest first.
func (s *Store) ListRetryable(ctx context.Context, staleBefore time.Time, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE status = ? OR (status = ? AND updated_at < ?)
		ORDER BY created_at ASC, id ASC LIMIT ?
	`, StatusFailed, StatusPending, staleBefore.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable submissions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

// Claim marks rec pending again if nobody changed it since it was read. It
// reports false when another caller got there first.
func (s *Store) Claim(ctx context.Context, rec Record) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND updated_at = ?
	`, StatusPending, s.timestamp(), rec.ID, rec.Status, rec.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("claim submission %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim submission %s: %w", rec.ID, err)
	}
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var payload, status, created, updated string
	if err := sc.Scan(
		&rec.ID, &rec.Email, &rec.PipelineKey, &rec.FinalTotal, &payload, &status, &rec.Attempts,
		&rec.LastError, &rec.ContactID, &rec.OpportunityID, &created, &updated,
	); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return Record{}, fmt.Errorf("decode payload: %w", err)
	}

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

// ResolveStage looks up the stage for a pipeline key, falling back to the
// "setup" row. It returns empty ids when nothing is configured.
func (s *Store) ResolveStage(ctx context.Context, key string) (string, string, error) {
	for _, k := range []string{key, "setup"} {
		var pipelineID, stageID string
		err := s.db.QueryRowContext(ctx, `
			SELECT pipeline_id, stage_id FROM pipeline_stages WHERE pipeline_key = ?
		`, k).Scan(&pipelineID, &stageID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("resolve stage %s: %w", k, err)
		}
		return pipelineID, stageID, nil
	}
	return "", "", nil
}
