package api

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/notify"
	"github.com/timelocker/tracker/internal/report"
)

type mockNotes struct {
	mock.Mock
}

func (m *mockNotes) ProcessNote(ctx context.Context, noteID string) ([]*model.NoteSourcedPlayResult, error) {
	args := m.Called(ctx, noteID)
	if v := args.Get(0); v != nil {
		return v.([]*model.NoteSourcedPlayResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, img []byte) (*model.NoteSourcedPlayResult, error) {
	args := m.Called(ctx, img)
	if v := args.Get(0); v != nil {
		return v.(*model.NoteSourcedPlayResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) HomePage() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockReports) ScorePerArmlevel(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) CharacterList(ctx context.Context) ([]report.CharacterScoreData, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]report.CharacterScoreData), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) CharacterSummary(ctx context.Context, name string) (*report.CharacterSummary, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.(*report.CharacterSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) CharacterRecent(ctx context.Context, name string) ([]model.PlayResult, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.([]model.PlayResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) ScoreRanking(ctx context.Context) (*report.ScoreRanking, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*report.ScoreRanking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) TotalPlayState(ctx context.Context) (*report.TotalPlayState, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*report.TotalPlayState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReports) DailyPlaySummary(ctx context.Context) ([]report.DailyPlay, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]report.DailyPlay), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []notify.Failure
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, f notify.Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, f)
	return r.err
}

func (r *recordingNotifier) failures() []notify.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Failure(nil), r.got...)
}
