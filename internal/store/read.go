package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/puppet/internal/value"
)

// CommandFilter narrows ReadCommands.
type CommandFilter struct {
	// Session restricts results to one session; empty means all.
	Session string

	// AfterSeq skips commands with seq <= AfterSeq.
	AfterSeq int64

	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// ReadCommands returns journaled commands in seq order.
func (s *Store) ReadCommands(ctx context.Context, f CommandFilter) ([]CommandRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Session != "" {
		where = append(where, "session = ?")
		args = append(args, f.Session)
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT seq, session, line, code, value_kind, value, recorded_at FROM commands`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var (
			rec        CommandRecord
			kind, val  sql.NullString
			recordedAt string
		)
		if err := rows.Scan(&rec.Seq, &rec.Session, &rec.Line, &rec.Code, &kind, &val, &recordedAt); err != nil {
			return nil, fmt.Errorf("read commands: scan: %w", err)
		}
		if rec.Value, err = decodeValue(kind, val); err != nil {
			return nil, fmt.Errorf("read commands: seq %d: %w", rec.Seq, err)
		}
		if rec.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("read commands: seq %d: %w", rec.Seq, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return out, nil
}

// ReadJobEvents returns job events in seq order, optionally for one job.
func (s *Store) ReadJobEvents(ctx context.Context, jobID string) ([]JobEventRecord, error) {
	query := `SELECT seq, session, job_id, job_seq, name, state, error, recorded_at FROM job_events`
	var args []any
	if jobID != "" {
		query += " WHERE job_id = ?"
		args = append(args, jobID)
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read job events: %w", err)
	}
	defer rows.Close()

	var out []JobEventRecord
	for rows.Next() {
		var (
			rec        JobEventRecord
			recordedAt string
		)
		if err := rows.Scan(&rec.Seq, &rec.Session, &rec.JobID, &rec.JobSeq, &rec.Name, &rec.State, &rec.Error, &recordedAt); err != nil {
			return nil, fmt.Errorf("read job events: scan: %w", err)
		}
		if rec.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("read job events: seq %d: %w", rec.Seq, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read job events: %w", err)
	}
	return out, nil
}

// LoadVariables returns the saved variable snapshot.
func (s *Store) LoadVariables(ctx context.Context) (map[string]value.Value, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, value FROM variables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]value.Value)
	for rows.Next() {
		var name, kind, payload string
		if err := rows.Scan(&name, &kind, &payload); err != nil {
			return nil, fmt.Errorf("load variables: scan: %w", err)
		}
		v, err := value.Decode(kind, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("load variable %q: %w", name, err)
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	return out, nil
}

// LastSession returns the session of the most recent command, or "".
func (s *Store) LastSession(ctx context.Context) (string, error) {
	var session sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT session FROM commands ORDER BY seq DESC LIMIT 1`).Scan(&session)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last session: %w", err)
	}
	return session.String, nil
}

// MaxJobSeq returns the highest job sequence number journaled, so a resumed
// session can continue numbering after it.
func (s *Store) MaxJobSeq(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(job_seq) FROM job_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("max job seq: %w", err)
	}
	return n.Int64, nil
}
