package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelocker/tracker/internal/model"
)

type fakeLedger struct {
	ids   []string
	err   error
	limit int
}

func (f *fakeLedger) ListFailedNotes(_ context.Context, limit int) ([]string, error) {
	f.limit = limit
	return f.ids, f.err
}

type fakeNotes struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	ran   chan struct{}
}

func (f *fakeNotes) ProcessNote(_ context.Context, id string) ([]*model.NoteSourcedPlayResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	if f.fail[id] {
		return nil, assert.AnError
	}
	return []*model.NoteSourcedPlayResult{{}}, nil
}

func TestRunOnce(t *testing.T) {
	ledger := &fakeLedger{ids: []string{"n1", "n2", "n3"}}
	notes := &fakeNotes{fail: map[string]bool{"n2": true}}

	n, err := NewReanalyzer(ledger, notes, 5).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, ledger.limit)
	assert.Equal(t, []string{"n1", "n2", "n3"}, notes.calls)
}

func TestRunOnce_DefaultBatch(t *testing.T) {
	ledger := &fakeLedger{}
	_, err := NewReanalyzer(ledger, &fakeNotes{}, 0).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, ledger.limit)
}

func TestRunOnce_LedgerError(t *testing.T) {
	notes := &fakeNotes{}
	_, err := NewReanalyzer(&fakeLedger{err: assert.AnError}, notes, 1).RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler: list failed notes")
	assert.Empty(t, notes.calls)
}

func TestRunOnce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notes := &fakeNotes{}

	_, err := NewReanalyzer(&fakeLedger{ids: []string{"n1"}}, notes, 1).RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, notes.calls)
}

func TestStart_RunsJob(t *testing.T) {
	notes := &fakeNotes{ran: make(chan struct{}, 1)}
	s, err := Start(context.Background(), NewReanalyzer(&fakeLedger{ids: []string{"n1"}}, notes, 1), 50*time.Millisecond)
	require.NoError(t, err)
	defer s.Shutdown() //nolint:errcheck

	select {
	case <-notes.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("reanalysis job did not run")
	}
}
