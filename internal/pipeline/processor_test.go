package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/resilience"
	"github.com/timelocker/tracker/internal/store"
	"github.com/timelocker/tracker/pkg/blob"
	"github.com/timelocker/tracker/pkg/notion"
	"github.com/timelocker/tracker/pkg/notion/notiontest"
)

var noteCreated = time.Date(2019, 4, 1, 9, 30, 0, 0, time.UTC)

func fastRetry() resilience.Policy {
	p := resilience.DefaultPolicy("test")
	p.Backoff = time.Millisecond
	p.MaxBackoff = time.Millisecond
	return p
}

func newLedger(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

type failingBlobs struct{ blob.Store }

func (failingBlobs) Put(context.Context, string, []byte) error { return assert.AnError }

func TestProcessNote_AnalyzesAndPersists(t *testing.T) {
	notes := notiontest.New()
	notes.AddUser("user-1", "jabara")
	notes.AddNote("db", "note-1", "[PANDAA]laser: hit by wall。greed、panic", noteCreated, "user-1",
		notiontest.Image{ID: "img-1", URL: "https://files/1"},
		notiontest.Image{ID: "img-2", URL: "https://files/2"},
	)
	files := &fakeFiles{files: map[string][]byte{"https://files/1": []byte("a"), "https://files/2": []byte("bb")}}
	blobs := blob.NewMemory()
	ledger := newLedger(t)

	p := NewNoteProcessor(notes, files, &stubAnalyzer{}, blobs, WithLedger(ledger), WithRetryPolicy(fastRetry()))
	results, err := p.ProcessNote(context.Background(), "note-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	r := results[0]
	assert.Equal(t, "2019-04-01T09:30:00.000Z", r.Created)
	assert.Equal(t, "PANDA", r.Character)
	assert.Equal(t, "[PANDAA]laser: hit by wall。greed、panic", r.Title)
	assert.Equal(t, []string{"greed", "panic"}, r.Reasons)
	assert.Equal(t, "hit by wall", r.MissSituation)
	assert.Equal(t, model.CurrentSchemaVersion, r.SchemaVersion)
	assert.Equal(t, model.NoteMeta{NoteGUID: "note-1", MediaGUID: "img-1", UserID: "user-1", Username: "jabara"}, r.NoteMeta)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "img-2", results[1].NoteMeta.MediaGUID)
	assert.Equal(t, 200, results[1].Score)

	assert.Equal(t, 2, blobs.Len())
	raw, err := blobs.Get(context.Background(), "img-1.json")
	require.NoError(t, err)
	var stored model.NoteSourcedPlayResult
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "PANDA", stored.Character)
	assert.Len(t, stored.Armaments, 1, "stored records keep detected armaments only")

	runs, err := ledger.ListRuns(context.Background(), store.RunFilter{NoteID: "note-1"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, model.RunStatusAnalyzed, run.Status)
		assert.Equal(t, "PANDA", run.Character)
	}
}

func TestProcessNote_EmptyCharacterNotCorrected(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "just a memo", noteCreated, "",
		notiontest.Image{ID: "img-1", URL: "u"})
	files := &fakeFiles{files: map[string][]byte{"u": []byte("x")}}

	results, err := NewNoteProcessor(notes, files, &stubAnalyzer{}, blob.NewMemory()).
		ProcessNote(context.Background(), "note-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "", results[0].Character)
	assert.Equal(t, []string{}, results[0].Reasons)
	assert.Equal(t, "", results[0].NoteMeta.Username)
}

func TestProcessNote_NoImages(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "[PANDA]", noteCreated, "")
	analyzer := &stubAnalyzer{}

	results, err := NewNoteProcessor(notes, &fakeFiles{}, analyzer, blob.NewMemory()).
		ProcessNote(context.Background(), "note-1")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, 0, analyzer.calls)
}

func TestProcessNote_PersistFailureIsSwallowed(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "[PANDA]", noteCreated, "", notiontest.Image{ID: "img-1", URL: "u"})
	files := &fakeFiles{files: map[string][]byte{"u": []byte("x")}}
	ledger := newLedger(t)

	results, err := NewNoteProcessor(notes, files, &stubAnalyzer{}, failingBlobs{}, WithLedger(ledger)).
		ProcessNote(context.Background(), "note-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "PANDA", results[0].Character)

	runs, err := ledger.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusPersistFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestProcessNote_AnalysisFailureFailsCall(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "[PANDA]", noteCreated, "",
		notiontest.Image{ID: "img-1", URL: "u1"},
		notiontest.Image{ID: "img-2", URL: "u2"},
	)
	files := &fakeFiles{files: map[string][]byte{"u1": []byte("ok"), "u2": []byte("bad")}}
	analyzer := &stubAnalyzer{fail: map[string]error{"bad": assert.AnError}}
	ledger := newLedger(t)

	p := NewNoteProcessor(notes, files, analyzer, blob.NewMemory(), WithLedger(ledger), WithConcurrency(1))
	_, err := p.ProcessNote(context.Background(), "note-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: attachment img-2")

	failed, err := ledger.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "img-2", failed[0].AttachmentID)
}

func TestProcessNote_RetriesTransientDownload(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "[PANDA]", noteCreated, "", notiontest.Image{ID: "img-1", URL: "u"})
	files := &fakeFiles{
		files: map[string][]byte{"u": []byte("x")},
		errs:  map[string][]error{"u": {&notion.DownloadError{StatusCode: http.StatusServiceUnavailable, URL: "u"}}},
	}

	results, err := NewNoteProcessor(notes, files, &stubAnalyzer{}, blob.NewMemory(), WithRetryPolicy(fastRetry())).
		ProcessNote(context.Background(), "note-1")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, files.calls["u"])
}

func TestProcessNote_PermanentDownloadErrorNotRetried(t *testing.T) {
	notes := notiontest.New()
	notes.AddNote("db", "note-1", "[PANDA]", noteCreated, "", notiontest.Image{ID: "img-1", URL: "gone"})
	files := &fakeFiles{}

	_, err := NewNoteProcessor(notes, files, &stubAnalyzer{}, blob.NewMemory(), WithRetryPolicy(fastRetry())).
		ProcessNote(context.Background(), "note-1")
	require.Error(t, err)
	assert.Equal(t, 1, files.calls["gone"])
}

func TestProcessNote_MissingNote(t *testing.T) {
	_, err := NewNoteProcessor(notiontest.New(), &fakeFiles{}, &stubAnalyzer{}, blob.NewMemory(), WithRetryPolicy(fastRetry())).
		ProcessNote(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: fetch note nope")
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&notion.DownloadError{StatusCode: 429}))
	assert.False(t, retryable(&notion.DownloadError{StatusCode: 403}))
	assert.False(t, retryable(assert.AnError))
}
