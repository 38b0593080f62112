package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/store"
)

// journal writes a session's commands and job events to the store.
// Write failures are logged and never interrupt the session.
type journal struct {
	st      *store.Store
	session string
	now     func() time.Time
	logger  *slog.Logger
}

func openJournal(path string, logger *slog.Logger) (*journal, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &journal{
		st:      st,
		session: id.String(),
		now:     time.Now,
		logger:  logger.With("session", id.String()),
	}, nil
}

// record is the dispatcher's Recorder.
func (j *journal) record(line string, r command.Result) {
	_, err := j.st.WriteCommand(context.Background(), store.CommandRecord{
		Session:    j.session,
		Line:       line,
		Code:       int(r.Code),
		Value:      r.Value,
		RecordedAt: j.now(),
	})
	if err != nil {
		j.logger.Warn("journal write failed", "line", line, "error", err)
	}
}

// observe is the scheduler's Observer.
func (j *journal) observe(ev scheduler.JobEvent) {
	rec := store.JobEventRecord{
		Session:    j.session,
		JobID:      ev.Job.ID,
		JobSeq:     ev.Job.Seq,
		Name:       ev.Job.Name,
		State:      string(ev.State),
		RecordedAt: ev.At,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	if err := j.st.WriteJobEvent(context.Background(), rec); err != nil {
		j.logger.Warn("journal write failed", "job", ev.Job.ID, "state", ev.State, "error", err)
	}
}
