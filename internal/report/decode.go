package report

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
	"github.com/timelocker/tracker/pkg/athena"
)

// ScoreData aggregates a set of plays.
type ScoreData struct {
	HighScore    int     `json:"highScore"`
	PlayCount    int     `json:"playCount"`
	AverageScore float64 `json:"averageScore"`
}

// CharacterScoreData is the per-mode aggregate of one character. A mode the
// character was never played on is nil.
type CharacterScoreData struct {
	Character string     `json:"character"`
	Hard      *ScoreData `json:"hard,omitempty"`
	Normal    *ScoreData `json:"normal,omitempty"`
}

// RankedPlay is a play and its rank within its mode.
type RankedPlay struct {
	model.PlayResult
	ScoreRank int `json:"scoreRank"`
}

// DailyPlay aggregates the plays of one day and mode.
type DailyPlay struct {
	PlayDate string         `json:"playDate"`
	Mode     model.GameMode `json:"mode"`
	ScoreData
}

func decodeScoreData(row athena.Row) (ScoreData, error) {
	var d ScoreData
	var err error
	if d.PlayCount, err = row.Int(colPlayCount); err != nil {
		return d, err
	}
	if d.HighScore, err = row.Int(colHighScore); err != nil {
		return d, err
	}
	if d.AverageScore, err = row.Float(colAverageScore); err != nil {
		return d, err
	}
	return d, nil
}

// decodeCharacterStats folds per-mode rows into one entry per character, in
// first-seen order.
func decodeCharacterStats(q Query, rs *athena.ResultSet) ([]CharacterScoreData, error) {
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	index := make(map[string]int)
	var out []CharacterScoreData
	for _, row := range rs.Rows {
		name := row.String(colCharacter)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CharacterScoreData{Character: name})
		}
		data, err := decodeScoreData(row)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		if model.ParseGameMode(row.String(colMode)) == model.GameModeHard {
			out[i].Hard = &data
		} else {
			out[i].Normal = &data
		}
	}
	return out, nil
}

// decodeArmaments reads armaments cast to JSON by the query engine, where
// each row(name, level) becomes a [name, level] pair, and complements them.
func decodeArmaments(cat *catalog.Catalog, raw string) ([]model.Armament, error) {
	var pairs [][]json.RawMessage
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
			return nil, eris.Wrap(err, "report: decode armaments")
		}
	}
	arms := make([]model.Armament, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, eris.Errorf("report: armament pair has %d elements", len(pair))
		}
		var a model.Armament
		if err := json.Unmarshal(pair[0], &a.Name); err != nil {
			return nil, eris.Wrap(err, "report: decode armament name")
		}
		if err := json.Unmarshal(pair[1], &a.Level); err != nil {
			return nil, eris.Wrap(err, "report: decode armament level")
		}
		arms = append(arms, a)
	}
	return cat.Complement(arms), nil
}

func decodeReasons(raw string) ([]string, error) {
	reasons := []string{}
	if raw == "" || raw == "null" {
		return reasons, nil
	}
	if err := json.Unmarshal([]byte(raw), &reasons); err != nil {
		return nil, eris.Wrap(err, "report: decode reasons")
	}
	if reasons == nil {
		reasons = []string{}
	}
	return reasons, nil
}

func decodePlay(cat *catalog.Catalog, row athena.Row) (model.PlayResult, error) {
	p := model.PlayResult{
		Created:       row.String(colCreated),
		Character:     row.String(colCharacter),
		Mode:          model.ParseGameMode(row.String(colMode)),
		MissSituation: row.String(colMissSituation),
	}
	var err error
	if p.Score, err = row.Int(colScore); err != nil {
		return p, err
	}
	if p.Armaments, err = decodeArmaments(cat, row.String(colArmamentsJSON)); err != nil {
		return p, err
	}
	if p.Reasons, err = decodeReasons(row.String(colReasonsJSON)); err != nil {
		return p, err
	}
	return p, nil
}

func decodeRanking(cat *catalog.Catalog, q Query, rs *athena.ResultSet) ([]RankedPlay, error) {
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	out := make([]RankedPlay, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		play, err := decodePlay(cat, row)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		rank, err := row.Int(colScoreRank)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		out = append(out, RankedPlay{PlayResult: play, ScoreRank: rank})
	}
	return out, nil
}

func decodePlays(cat *catalog.Catalog, q Query, rs *athena.ResultSet) ([]model.PlayResult, error) {
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	out := make([]model.PlayResult, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		play, err := decodePlay(cat, row)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		out = append(out, play)
	}
	return out, nil
}

func decodeTotals(q Query, rs *athena.ResultSet) (*TotalPlayState, error) {
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	out := &TotalPlayState{}
	for _, row := range rs.Rows {
		data, err := decodeScoreData(row)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		if model.ParseGameMode(row.String(colMode)) == model.GameModeHard {
			out.Hard = data
		} else {
			out.Normal = data
		}
	}
	return out, nil
}

func decodeDaily(q Query, rs *athena.ResultSet) ([]DailyPlay, error) {
	if err := rs.Require(q.Columns...); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", q.Name)
	}
	out := make([]DailyPlay, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		data, err := decodeScoreData(row)
		if err != nil {
			return nil, eris.Wrapf(err, "report: decode %s", q.Name)
		}
		out = append(out, DailyPlay{
			PlayDate:  row.String(colPlayDate),
			Mode:      model.ParseGameMode(row.String(colMode)),
			ScoreData: data,
		})
	}
	return out, nil
}
