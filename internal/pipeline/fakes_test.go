package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timelocker/tracker/internal/armament"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/notion"
)

func screenshot(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(w/2, h/2, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func td(text, typ string, conf, left, top float64) model.TextDetection {
	return model.TextDetection{
		DetectedText: text,
		Type:         typ,
		Confidence:   conf,
		Geometry:     model.Geometry{BoundingBox: model.BoundingBox{Left: left, Top: top, Width: 0.05, Height: 0.05}},
	}
}

func icon(name string, left, top float64) model.ArmamentBounding {
	return model.ArmamentBounding{Name: name, BoundingBox: model.PixelBox{Left: left, Top: top, Width: 40, Height: 40}}
}

// fakeDetector answers the level image with levels and anything else with
// score.
type fakeDetector struct {
	levelImage []byte
	levels     []model.TextDetection
	score      []model.TextDetection
	err        error

	mu       sync.Mutex
	received [][]byte
}

func (f *fakeDetector) DetectText(_ context.Context, img []byte) ([]model.TextDetection, error) {
	f.mu.Lock()
	f.received = append(f.received, img)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if bytes.Equal(img, f.levelImage) {
		return append([]model.TextDetection(nil), f.levels...), nil
	}
	return append([]model.TextDetection(nil), f.score...), nil
}

type fakeExtractor struct {
	result *armament.Result
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (*armament.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.result
	cp.Armaments = append([]model.ArmamentBounding(nil), f.result.Armaments...)
	return &cp, nil
}

// stubAnalyzer returns a fixed reading per image payload.
type stubAnalyzer struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error
}

func (s *stubAnalyzer) Analyze(_ context.Context, img []byte) (*model.NoteSourcedPlayResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err := s.fail[string(img)]; err != nil {
		return nil, err
	}
	return &model.NoteSourcedPlayResult{
		PlayResult: model.PlayResult{
			Created:   "2000-01-01T00:00:00.000Z",
			Mode:      model.GameModeHard,
			Score:     len(img) * 100,
			Armaments: []model.Armament{{Name: "BEAM", Level: model.LevelOf(3)}},
			Reasons:   []string{},
		},
		ArmamentsMeta: []model.ArmamentBounding{icon("BEAM", 10, 10)},
	}, nil
}

// fakeFiles serves attachment bytes by URL.
type fakeFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	errs  map[string][]error
	calls map[string]int
}

func (f *fakeFiles) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[url]++
	if errs := f.errs[url]; len(errs) > 0 {
		f.errs[url] = errs[1:]
		return nil, errs[0]
	}
	data, ok := f.files[url]
	if !ok {
		return nil, &notion.DownloadError{StatusCode: 404, URL: url}
	}
	return data, nil
}
