package backfill

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/notion"
)

// NoteProcessor analyzes and persists every image of a note.
type NoteProcessor interface {
	ProcessNote(ctx context.Context, noteID string) ([]*model.NoteSourcedPlayResult, error)
}

// NoteIDs lists every note of the notebook, oldest first.
func NoteIDs(ctx context.Context, notes notion.Client, notebookID string) ([]string, error) {
	pages, err := notion.QueryNotes(ctx, notes, notebookID)
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list notes")
	}
	ids := make([]string, len(pages))
	for i := range pages {
		ids[i] = string(pages[i].ID)
	}
	return ids, nil
}

// Reanalyze processes the given notes one at a time. A note that fails is
// logged and counted. Updated counts the images analyzed.
func (r *Runner) Reanalyze(ctx context.Context, p NoteProcessor, noteIDs []string) (Result, error) {
	log := zap.L().With(zap.String("backfill", "reanalyze"))

	var res Result
	for _, id := range noteIDs {
		if err := r.limiter.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "backfill: wait")
		}
		res.Total++
		if r.dryRun {
			res.Skipped++
			continue
		}

		results, err := p.ProcessNote(ctx, id)
		if err != nil {
			res.Failed++
			log.Warn("backfill: note failed", zap.String("note_id", id), zap.Error(err))
			continue
		}
		if len(results) == 0 {
			res.Skipped++
			continue
		}
		res.Updated += len(results)
	}

	log.Info("backfill: finished",
		zap.Int("notes", res.Total),
		zap.Int("images", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
