// Package scheduler runs background jobs of the server.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/model"
)

// FailedNotes lists notes whose latest analysis of some attachment failed.
type FailedNotes interface {
	ListFailedNotes(ctx context.Context, limit int) ([]string, error)
}

// NoteProcessor analyzes every image of a note.
type NoteProcessor interface {
	ProcessNote(ctx context.Context, noteID string) ([]*model.NoteSourcedPlayResult, error)
}

// Reanalyzer retries notes whose analysis failed.
type Reanalyzer struct {
	ledger FailedNotes
	notes  NoteProcessor
	batch  int
}

// NewReanalyzer creates a Reanalyzer handling at most batch notes per run.
func NewReanalyzer(ledger FailedNotes, notes NoteProcessor, batch int) *Reanalyzer {
	if batch <= 0 {
		batch = 20
	}
	return &Reanalyzer{ledger: ledger, notes: notes, batch: batch}
}

// RunOnce reprocesses one batch of failed notes in order and returns how
// many succeeded. A note that fails again stays in the ledger as failed and
// is picked up by a later run.
func (r *Reanalyzer) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.ledger.ListFailedNotes(ctx, r.batch)
	if err != nil {
		return 0, eris.Wrap(err, "scheduler: list failed notes")
	}
	recovered := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}
		if _, err := r.notes.ProcessNote(ctx, id); err != nil {
			zap.L().Warn("scheduler: reanalysis failed", zap.String("note_id", id), zap.Error(err))
			continue
		}
		recovered++
	}
	if len(ids) > 0 {
		zap.L().Info("scheduler: reanalysis finished",
			zap.Int("notes", len(ids)),
			zap.Int("recovered", recovered),
		)
	}
	return recovered, nil
}

// Start schedules r every interval until ctx is done. Runs never overlap.
// The caller shuts the returned scheduler down.
func Start(ctx context.Context, r *Reanalyzer, interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, eris.Wrap(err, "scheduler: create")
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := r.RunOnce(ctx); err != nil {
				zap.L().Error("scheduler: reanalysis run", zap.Error(err))
			}
		}),
		gocron.WithName("reanalyze-failed-notes"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, eris.Wrap(err, "scheduler: add reanalysis job")
	}

	s.Start()
	zap.L().Info("scheduler: started", zap.Duration("interval", interval))
	return s, nil
}
