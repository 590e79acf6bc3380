// Package backfill rewrites stored play results one object at a time.
package backfill

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/blob"
)

// Result counts the outcome of a run.
type Result struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// UpdateFunc changes rec in place and reports whether it changed.
type UpdateFunc func(rec *model.NoteSourcedPlayResult) (bool, error)

// Runner walks the stored records strictly sequentially, waiting on a rate
// limiter before each item.
type Runner struct {
	blobs   blob.Store
	limiter *rate.Limiter
	dryRun  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDryRun computes updates without writing them.
func WithDryRun(dry bool) RunnerOption {
	return func(r *Runner) { r.dryRun = dry }
}

// NewRunner creates a Runner that handles at most itemsPerSecond items per
// second. Zero or less means unlimited.
func NewRunner(blobs blob.Store, itemsPerSecond float64, opts ...RunnerOption) *Runner {
	limit := rate.Inf
	if itemsPerSecond > 0 {
		limit = rate.Limit(itemsPerSecond)
	}
	r := &Runner{blobs: blobs, limiter: rate.NewLimiter(limit, 1)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update applies fn to every stored record and writes back the ones it
// changed. Item failures are logged and counted; only a failure to list
// the records or a cancelled context aborts the run.
func (r *Runner) Update(ctx context.Context, name string, fn UpdateFunc) (Result, error) {
	log := zap.L().With(zap.String("backfill", name), zap.Bool("dry_run", r.dryRun))

	keys, err := r.blobs.List(ctx, "")
	if err != nil {
		return Result{}, eris.Wrap(err, "backfill: list records")
	}

	var res Result
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "backfill: wait")
		}
		res.Total++

		changed, err := r.updateOne(ctx, key, fn)
		switch {
		case err != nil:
			res.Failed++
			log.Warn("backfill: item failed", zap.String("key", key), zap.Error(err))
		case changed:
			res.Updated++
			log.Debug("backfill: item updated", zap.String("key", key))
		default:
			res.Skipped++
		}
	}

	log.Info("backfill: finished",
		zap.Int("total", res.Total),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (r *Runner) updateOne(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	raw, err := r.blobs.Get(ctx, key)
	if err != nil {
		return false, err
	}
	var rec model.NoteSourcedPlayResult
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, eris.Wrapf(err, "backfill: decode %s", key)
	}

	changed, err := fn(&rec)
	if err != nil || !changed || r.dryRun {
		return changed, err
	}

	body, err := json.Marshal(&rec)
	if err != nil {
		return false, eris.Wrapf(err, "backfill: encode %s", key)
	}
	if err := r.blobs.Put(ctx, key, body); err != nil {
		return false, eris.Wrapf(err, "backfill: write %s", key)
	}
	return true, nil
}
