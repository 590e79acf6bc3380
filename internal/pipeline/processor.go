package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/resilience"
	"github.com/timelocker/tracker/internal/store"
	"github.com/timelocker/tracker/internal/title"
	"github.com/timelocker/tracker/pkg/blob"
	"github.com/timelocker/tracker/pkg/notion"
)

// Downloader fetches attachment bytes.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// NoteProcessor analyzes every image attached to a note and persists the
// results.
type NoteProcessor struct {
	notes       notion.Client
	files       Downloader
	analyzer    ScreenshotAnalyzer
	blobs       blob.Store
	ledger      store.Store
	catalog     *catalog.Catalog
	concurrency int
	retry       resilience.Policy
}

// ProcessorOption configures a NoteProcessor.
type ProcessorOption func(*NoteProcessor)

// WithLedger records every attachment analysis in st.
func WithLedger(st store.Store) ProcessorOption {
	return func(p *NoteProcessor) { p.ledger = st }
}

// WithConcurrency bounds the number of attachments analyzed at once.
func WithConcurrency(n int) ProcessorOption {
	return func(p *NoteProcessor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRetryPolicy overrides the policy for note service calls and downloads.
func WithRetryPolicy(policy resilience.Policy) ProcessorOption {
	return func(p *NoteProcessor) { p.retry = policy }
}

// WithCatalog overrides the catalog used to correct character names.
func WithCatalog(c *catalog.Catalog) ProcessorOption {
	return func(p *NoteProcessor) { p.catalog = c }
}

// NewNoteProcessor creates a NoteProcessor.
func NewNoteProcessor(notes notion.Client, files Downloader, analyzer ScreenshotAnalyzer, blobs blob.Store, opts ...ProcessorOption) *NoteProcessor {
	p := &NoteProcessor{
		notes:       notes,
		files:       files,
		analyzer:    analyzer,
		blobs:       blobs,
		catalog:     catalog.Default(),
		concurrency: 2,
		retry:       resilience.DefaultPolicy("notion"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retry.Retryable == nil {
		p.retry.Retryable = retryable
	}
	return p
}

// ProcessNote analyzes the images of a note, in attachment order. A failed
// analysis fails the call; a failed write is only logged.
func (p *NoteProcessor) ProcessNote(ctx context.Context, noteID string) ([]*model.NoteSourcedPlayResult, error) {
	log := zap.L().With(zap.String("note_id", noteID))

	note, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*notion.Note, error) {
		return notion.GetNote(ctx, p.notes, noteID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: fetch note %s", noteID)
	}
	attachments, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]notion.Attachment, error) {
		return notion.ListImages(ctx, p.notes, noteID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list attachments of %s", noteID)
	}
	log.Info("pipeline: processing note", zap.String("title", note.Title), zap.Int("attachments", len(attachments)))
	if len(attachments) == 0 {
		return []*model.NoteSourcedPlayResult{}, nil
	}

	meta := p.noteMeta(ctx, note)

	results := make([]*model.NoteSourcedPlayResult, len(attachments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, att := range attachments {
		g.Go(func() error {
			res, err := p.processAttachment(gctx, note, meta, att)
			if err != nil {
				p.record(ctx, &model.AnalysisRun{
					NoteID:       note.ID,
					AttachmentID: att.ID,
					Status:       model.RunStatusFailed,
					Error:        err.Error(),
				})
				return eris.Wrapf(err, "pipeline: attachment %s", att.ID)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("pipeline: note processed", zap.Int("images", len(results)))
	return results, nil
}

func (p *NoteProcessor) processAttachment(ctx context.Context, note *notion.Note, meta model.NoteMeta, att notion.Attachment) (*model.NoteSourcedPlayResult, error) {
	img, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
		return p.files.Download(ctx, att.URL)
	})
	if err != nil {
		return nil, err
	}

	res, err := p.analyzer.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}

	character := title.Character(note.Title)
	if character != "" {
		character = p.catalog.Correct(character)
	}
	res.Created = model.FormatTimestamp(note.Created)
	res.Character = character
	res.Title = note.Title
	res.Reasons = title.Reasons(note.Title)
	res.MissSituation = title.MissSituation(note.Title)
	res.SchemaVersion = model.CurrentSchemaVersion
	res.NoteMeta = meta
	res.NoteMeta.MediaGUID = att.ID

	run := &model.AnalysisRun{
		NoteID:       note.ID,
		AttachmentID: att.ID,
		ObjectKey:    model.ObjectKey(att.ID),
		Status:       model.RunStatusAnalyzed,
		Score:        res.Score,
		Character:    res.Character,
	}
	if err := p.persist(ctx, run.ObjectKey, res); err != nil {
		zap.L().Error("pipeline: persist result",
			zap.String("note_id", note.ID),
			zap.String("key", run.ObjectKey),
			zap.Error(err),
		)
		run.Status = model.RunStatusPersistFailed
		run.Error = err.Error()
	}
	p.record(ctx, run)

	return res, nil
}

func (p *NoteProcessor) persist(ctx context.Context, key string, res *model.NoteSourcedPlayResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal result")
	}
	return p.blobs.Put(ctx, key, body)
}

// noteMeta resolves the note author. An unresolvable author leaves the
// username empty.
func (p *NoteProcessor) noteMeta(ctx context.Context, note *notion.Note) model.NoteMeta {
	meta := model.NoteMeta{NoteGUID: note.ID, UserID: note.CreatorID}
	if note.CreatorID == "" {
		return meta
	}
	user, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*notion.User, error) {
		return notion.GetUser(ctx, p.notes, note.CreatorID)
	})
	if err != nil {
		zap.L().Warn("pipeline: resolve note author", zap.String("user_id", note.CreatorID), zap.Error(err))
		return meta
	}
	meta.Username = user.Name
	return meta
}

func (p *NoteProcessor) record(ctx context.Context, run *model.AnalysisRun) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		zap.L().Warn("pipeline: record run", zap.String("attachment_id", run.AttachmentID), zap.Error(err))
	}
}

// retryable classifies note service and file host failures.
func retryable(err error) bool {
	var dl *notion.DownloadError
	if errors.As(err, &dl) {
		return resilience.IsTransientHTTPStatus(dl.StatusCode)
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.Status)
	}
	return resilience.IsTransient(err)
}
