// Package pipeline turns screenshots and notes into play result records.
package pipeline

import (
	"bytes"
	"context"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/timelocker/tracker/internal/armament"
	"github.com/timelocker/tracker/internal/config"
	"github.com/timelocker/tracker/internal/detect"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/internal/ocr"
)

// ScreenshotAnalyzer reads a play result off a single screenshot.
type ScreenshotAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (*model.NoteSourcedPlayResult, error)
}

// Analyzer reads the score, mode and armament levels from a screenshot.
type Analyzer struct {
	text       ocr.Detector
	arms       armament.Extractor
	region     config.Region
	sevenAsOne map[string]bool
	now        func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(cfg config.AnalysisConfig, text ocr.Detector, arms armament.Extractor) *Analyzer {
	seven := make(map[string]bool, len(cfg.SevenAsOne))
	for _, name := range cfg.SevenAsOne {
		seven[name] = true
	}
	return &Analyzer{
		text:       text,
		arms:       arms,
		region:     cfg.ScoreRegion,
		sevenAsOne: seven,
		now:        time.Now,
	}
}

type scoreReading struct {
	score int
	mode  model.GameMode
}

// Analyze implements ScreenshotAnalyzer. The returned record has no note
// provenance and its created time is the analysis time.
func (a *Analyzer) Analyze(ctx context.Context, img []byte) (*model.NoteSourcedPlayResult, error) {
	var (
		score *scoreReading
		icons *armament.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		score, err = a.readScore(gctx, img)
		return err
	})
	g.Go(func() error {
		var err error
		icons, err = a.arms.Extract(gctx, img)
		return eris.Wrap(err, "pipeline: extract armaments")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detect.SortArmaments(icons.Armaments)

	plain, err := a.text.DetectText(ctx, icons.LevelImage)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: detect levels")
	}
	processed := detect.Dedupe(plain)
	detect.SortTexts(plain)
	detect.SortTexts(processed)

	arms := make([]model.Armament, len(icons.Armaments))
	for i, icon := range icons.Armaments {
		arms[i] = model.Armament{Name: icon.Name}
		if i < len(processed) {
			arms[i].Level = a.calibrate(icon.Name, leadingInt(processed[i].DetectedText))
		}
	}

	zap.L().Debug("pipeline: screenshot analyzed",
		zap.Int("score", score.score),
		zap.String("mode", string(score.mode)),
		zap.Int("armaments", len(arms)),
		zap.Int("level_detections", len(processed)),
	)

	return &model.NoteSourcedPlayResult{
		PlayResult: model.PlayResult{
			Created:   model.FormatTimestamp(a.now()),
			Mode:      score.mode,
			Score:     score.score,
			Armaments: arms,
			Reasons:   []string{},
		},
		SchemaVersion: model.CurrentSchemaVersion,
		ArmamentsMeta: icons.Armaments,
		LevelsMeta: model.LevelsMeta{
			PlainResult:     plain,
			ProcessedResult: processed,
		},
	}, nil
}

// calibrate applies the known OCR confusion of 1 read as 7 on some icons.
func (a *Analyzer) calibrate(name string, level *int) *int {
	if level != nil && *level == 7 && a.sevenAsOne[name] {
		return model.LevelOf(1)
	}
	return level
}

func (a *Analyzer) readScore(ctx context.Context, img []byte) (*scoreReading, error) {
	region, err := a.cropScore(img)
	if err != nil {
		return nil, err
	}
	texts, err := a.text.DetectText(ctx, region)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: detect score")
	}
	return parseScore(texts), nil
}

// cropScore cuts the score region out of the screenshot. Screenshots that do
// not contain the whole region are passed on uncropped.
func (a *Analyzer) cropScore(img []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: decode screenshot")
	}

	r := image.Rect(a.region.X, a.region.Y, a.region.X+a.region.Width, a.region.Y+a.region.Height)
	if r.Empty() || !r.In(src.Bounds()) {
		return img, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Crop(src, r), imaging.PNG); err != nil {
		return nil, eris.Wrap(err, "pipeline: encode score region")
	}
	return buf.Bytes(), nil
}

// parseScore picks the mode marker and the first line that reads as a number.
func parseScore(texts []model.TextDetection) *scoreReading {
	out := &scoreReading{mode: model.GameModeNormal}
	found := false
	for _, t := range texts {
		text := strings.TrimSpace(t.DetectedText)
		if text == "HARD" {
			out.mode = model.GameModeHard
		}
		if found || t.Type != model.TextTypeLine {
			continue
		}
		if n, err := strconv.Atoi(strings.ReplaceAll(text, ",", "")); err == nil {
			out.score = n
			found = true
		}
	}
	if !found {
		zap.L().Warn("pipeline: no score line detected", zap.Int("detections", len(texts)))
	}
	return out
}

// leadingInt parses the run of digits at the start of s. Nil when there is
// none.
func leadingInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
