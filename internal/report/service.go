// Package report runs the analytics queries over stored play results and
// shapes their output for the API.
package report

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/athena"
)

const (
	rankingLimit          = 10
	characterRankingLimit = 5
	recentWindow          = 5 * 24 * time.Hour
)

// Config configures a Service.
type Config struct {
	Database      string
	Table         string
	StaticBaseURL string
}

// Service answers report requests.
type Service struct {
	query   athena.Client
	sql     *Builder
	catalog *catalog.Catalog
	pages   *Pages
	now     func() time.Time
}

// NewService creates a Service. A nil catalog means catalog.Default().
func NewService(q athena.Client, cfg Config, cat *catalog.Catalog) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{
		query:   q,
		sql:     NewBuilder(cfg.Database, cfg.Table),
		catalog: cat,
		pages:   NewPages(cfg.StaticBaseURL),
		now:     time.Now,
	}
}

// CharacterSummaryElement is one mode of a character summary.
type CharacterSummaryElement struct {
	ScoreSummary ScoreData          `json:"scoreSummary"`
	ScoreRanking []model.PlayResult `json:"scoreRanking"`
}

// CharacterSummary is the summary and best plays of one character.
type CharacterSummary struct {
	Character string                   `json:"character"`
	Hard      *CharacterSummaryElement `json:"hard"`
	Normal    *CharacterSummaryElement `json:"normal"`
}

// ScoreRanking is the best plays of each mode.
type ScoreRanking struct {
	Hard   []RankedPlay `json:"hard"`
	Normal []RankedPlay `json:"normal"`
}

// TotalPlayState aggregates all plays by mode.
type TotalPlayState struct {
	Hard   ScoreData `json:"hard"`
	Normal ScoreData `json:"normal"`
}

func (s *Service) run(ctx context.Context, q Query) (*athena.ResultSet, error) {
	start := time.Now()
	rs, err := s.query.Query(ctx, q.SQL)
	if err != nil {
		return nil, eris.Wrapf(err, "report: query %s", q.Name)
	}
	zap.L().Debug("report: query finished",
		zap.String("query", q.Name),
		zap.Int("rows", len(rs.Rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rs, nil
}

// HomePage renders the front end shell.
func (s *Service) HomePage() ([]byte, error) {
	return s.pages.Home()
}

// ScorePerArmlevel renders score divided by total armament level per
// armament and mode as an HTML table.
func (s *Service) ScorePerArmlevel(ctx context.Context) ([]byte, error) {
	q := s.sql.ScorePerArmlevel()
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	return s.pages.Table("Score per armlevel", rs)
}

// CharacterList returns the per-mode aggregate of every character, sorted
// by name.
func (s *Service) CharacterList(ctx context.Context) ([]CharacterScoreData, error) {
	q := s.sql.CharacterList()
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := decodeCharacterStats(q, rs)
	if err != nil {
		return nil, err
	}
	coll := collate.New(language.English)
	slices.SortStableFunc(list, func(a, b CharacterScoreData) int {
		return coll.CompareString(a.Character, b.Character)
	})
	if list == nil {
		list = []CharacterScoreData{}
	}
	return list, nil
}

// CharacterSummary returns the aggregate and top plays of one character.
// Names outside the catalog yield an empty summary without querying.
func (s *Service) CharacterSummary(ctx context.Context, name string) (*CharacterSummary, error) {
	out := &CharacterSummary{Character: name}
	if !s.catalog.Valid(name) {
		zap.L().Info("report: unknown character", zap.String("character", name))
		return out, nil
	}

	var (
		stats   *CharacterScoreData
		ranking []RankedPlay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.characterStats(gctx, name)
		return err
	})
	g.Go(func() error {
		q := s.sql.CharacterRanking(name, characterRankingLimit)
		rs, err := s.run(gctx, q)
		if err != nil {
			return err
		}
		ranking, err = decodeRanking(s.catalog, q, rs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	element := func(data *ScoreData, mode model.GameMode) *CharacterSummaryElement {
		if data == nil {
			return nil
		}
		el := &CharacterSummaryElement{ScoreSummary: *data, ScoreRanking: []model.PlayResult{}}
		for _, r := range ranking {
			if r.Mode == mode {
				el.ScoreRanking = append(el.ScoreRanking, r.PlayResult)
			}
		}
		return el
	}
	out.Hard = element(stats.Hard, model.GameModeHard)
	out.Normal = element(stats.Normal, model.GameModeNormal)
	return out, nil
}

func (s *Service) characterStats(ctx context.Context, name string) (*CharacterScoreData, error) {
	q := s.sql.CharacterSummary(name)
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := decodeCharacterStats(q, rs)
	if err != nil {
		return nil, err
	}
	switch len(list) {
	case 0:
		return &CharacterScoreData{Character: name}, nil
	case 1:
		return &list[0], nil
	default:
		return nil, eris.Errorf("report: expected 1 summary for %s, got %d", name, len(list))
	}
}

// ScoreRanking returns the top plays of each mode.
func (s *Service) ScoreRanking(ctx context.Context) (*ScoreRanking, error) {
	q := s.sql.ScoreRanking(rankingLimit)
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	ranking, err := decodeRanking(s.catalog, q, rs)
	if err != nil {
		return nil, err
	}
	out := &ScoreRanking{Hard: []RankedPlay{}, Normal: []RankedPlay{}}
	for _, r := range ranking {
		if r.Mode == model.GameModeHard {
			out.Hard = append(out.Hard, r)
		} else {
			out.Normal = append(out.Normal, r)
		}
	}
	return out, nil
}

// TotalPlayState aggregates all plays by mode. Modes without plays are
// zero.
func (s *Service) TotalPlayState(ctx context.Context) (*TotalPlayState, error) {
	q := s.sql.TotalPlayState()
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeTotals(q, rs)
}

// DailyPlaySummary aggregates plays per day and mode, newest day first.
func (s *Service) DailyPlaySummary(ctx context.Context) ([]DailyPlay, error) {
	q := s.sql.DailyPlaySummary()
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeDaily(q, rs)
}

// CharacterRecent lists the plays of one character over the last five days,
// newest first.
func (s *Service) CharacterRecent(ctx context.Context, name string) ([]model.PlayResult, error) {
	if !s.catalog.Valid(name) {
		return []model.PlayResult{}, nil
	}
	since := model.FormatTimestamp(s.now().Add(-recentWindow))
	q := s.sql.CharacterRecent(name, since)
	rs, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodePlays(s.catalog, q, rs)
}
