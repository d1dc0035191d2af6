// File path: internal/store/runs.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a run id with no history record.
var ErrNotFound = errors.New("run not found")

// RunRecord is the persisted shape of a finished or in-flight run.
type RunRecord struct {
	ID               string       `db:"id"`
	Status           string       `db:"status"`
	Flow             string       `db:"flow"`
	AppID            string       `db:"app_id"`
	AppLabel         string       `db:"app_label"`
	Namespace        string       `db:"namespace"`
	Message          string       `db:"message"`
	MetadataPath     string       `db:"metadata_path"`
	ExportPath       string       `db:"export_path"`
	ObjectsProcessed int          `db:"objects_processed"`
	FieldsExtracted  int          `db:"fields_extracted"`
	StartedAt        time.Time    `db:"started_at"`
	FinishedAt       sql.NullTime `db:"finished_at"`
}

// RunLog is one persisted progress message.
type RunLog struct {
	RunID    string    `db:"run_id"`
	Seq      int       `db:"seq"`
	LoggedAt time.Time `db:"logged_at"`
	Message  string    `db:"message"`
}

// SaveRun inserts or replaces a run record.
func (s *Store) SaveRun(ctx context.Context, record RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("history store not initialised")
	}
	const query = `INSERT INTO runs (
                id, status, flow, app_id, app_label, namespace, message,
                metadata_path, export_path, objects_processed, fields_extracted,
                started_at, finished_at
        ) VALUES (
                :id, :status, :flow, :app_id, :app_label, :namespace, :message,
                :metadata_path, :export_path, :objects_processed, :fields_extracted,
                :started_at, :finished_at
        ) ON CONFLICT(id) DO UPDATE SET
                status = excluded.status,
                message = excluded.message,
                metadata_path = excluded.metadata_path,
                export_path = excluded.export_path,
                objects_processed = excluded.objects_processed,
                fields_extracted = excluded.fields_extracted,
                finished_at = excluded.finished_at;`
	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("save run %s: %w", record.ID, err)
	}
	return nil
}

// AppendLogs persists progress messages past the highest stored sequence for
// the run. Messages already stored are skipped.
func (s *Store) AppendLogs(ctx context.Context, runID string, messages []string, loggedAt time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("history store not initialised")
	}
	if len(messages) == 0 {
		return nil
	}
	var last sql.NullInt64
	if err := s.db.GetContext(ctx, &last, `SELECT MAX(seq) FROM run_logs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("read log sequence for run %s: %w", runID, err)
	}
	next := int(last.Int64) + 1
	if !last.Valid {
		next = 1
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin log append: %w", err)
	}
	const insert = `INSERT OR IGNORE INTO run_logs (run_id, seq, logged_at, message) VALUES (?, ?, ?, ?)`
	for i, message := range messages {
		seq := next + i
		if seq < 1 {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, runID, seq, loggedAt, message); err != nil {
			tx.Rollback()
			return fmt.Errorf("append log for run %s: %w", runID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit log append: %w", err)
	}
	return nil
}

// GetRun fetches one run record by id.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	if s == nil || s.db == nil {
		return RunRecord{}, errors.New("history store not initialised")
	}
	var record RunRecord
	err := s.db.GetContext(ctx, &record, `SELECT * FROM runs WHERE id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return record, nil
}

// RunLogs returns the persisted messages of a run in sequence order.
func (s *Store) RunLogs(ctx context.Context, runID string) ([]RunLog, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store not initialised")
	}
	var logs []RunLog
	err := s.db.SelectContext(ctx, &logs,
		`SELECT run_id, seq, logged_at, message FROM run_logs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list logs for run %s: %w", runID, err)
	}
	return logs, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	var records []RunRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}
