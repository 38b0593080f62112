package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/puppet/internal/value"
)

// CommandRecord is one journaled command.
type CommandRecord struct {
	Seq        int64
	Session    string
	Line       string
	Code       int
	Value      value.Value // nil when the command produced none
	RecordedAt time.Time
}

// JobEventRecord is one journaled job lifecycle transition.
type JobEventRecord struct {
	Seq        int64
	Session    string
	JobID      string
	JobSeq     int64
	Name       string
	State      string
	Error      string
	RecordedAt time.Time
}

// WriteCommand appends rec and returns its assigned seq. rec.Seq is ignored.
func (s *Store) WriteCommand(ctx context.Context, rec CommandRecord) (int64, error) {
	kind, payload, err := encodeValue(rec.Value)
	if err != nil {
		return 0, fmt.Errorf("write command: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (session, line, code, value_kind, value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.Session,
		rec.Line,
		rec.Code,
		kind,
		payload,
		formatTime(rec.RecordedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("write command: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write command: %w", err)
	}
	return seq, nil
}

// WriteJobEvent appends rec. rec.Seq is ignored.
func (s *Store) WriteJobEvent(ctx context.Context, rec JobEventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_events (session, job_id, job_seq, name, state, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Session,
		rec.JobID,
		rec.JobSeq,
		rec.Name,
		rec.State,
		rec.Error,
		formatTime(rec.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("write job event: %w", err)
	}
	return nil
}

// SaveVariables replaces the stored snapshot with vars in one transaction.
func (s *Store) SaveVariables(ctx context.Context, vars map[string]value.Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save variables: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM variables`); err != nil {
		return fmt.Errorf("save variables: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO variables (name, kind, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save variables: %w", err)
	}
	defer stmt.Close()

	for name, v := range vars {
		kind, payload, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("save variable %q: %w", name, err)
		}
		if !kind.Valid {
			continue
		}
		if _, err := stmt.ExecContext(ctx, name, kind.String, payload.String); err != nil {
			return fmt.Errorf("save variable %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save variables: %w", err)
	}
	return nil
}

// encodeValue splits v into its kind and untagged JSON payload. A nil
// value maps to two NULLs.
func encodeValue(v value.Value) (sql.NullString, sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, sql.NullString{}, nil
	}
	payload, err := value.Payload(v)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, err
	}
	return sql.NullString{String: v.Kind().String(), Valid: true},
		sql.NullString{String: string(payload), Valid: true},
		nil
}

func decodeValue(kind, payload sql.NullString) (value.Value, error) {
	if !kind.Valid {
		return nil, nil
	}
	return value.Decode(kind.String, []byte(payload.String))
}
