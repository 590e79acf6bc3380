package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func allQueries(b *Builder) []Query {
	return []Query{
		b.ScorePerArmlevel(),
		b.CharacterList(),
		b.CharacterSummary("PANDA"),
		b.ScoreRanking(10),
		b.CharacterRanking("PANDA", 5),
		b.TotalPlayState(),
		b.DailyPlaySummary(),
		b.CharacterRecent("PANDA", "2026-01-01T00:00:00.000Z"),
	}
}

func TestQueries_DeclareAliasesTheySelect(t *testing.T) {
	for _, q := range allQueries(NewBuilder("time-locker", "time_locker_play_result")) {
		t.Run(q.Name, func(t *testing.T) {
			assert.NotEmpty(t, q.Columns)
			for _, col := range q.Columns {
				assert.Contains(t, q.SQL, " as "+col, "alias %s not selected", col)
			}
		})
	}
}

func TestQueries_ExcludePlaceholders(t *testing.T) {
	for _, q := range allQueries(NewBuilder("db", "t")) {
		assert.Contains(t, q.SQL, "cardinality(armaments) > 0", q.Name)
		assert.Contains(t, q.SQL, `"db"."t"`, q.Name)
	}
}

func TestQueries_NamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, q := range allQueries(NewBuilder("db", "t")) {
		assert.False(t, seen[q.Name], q.Name)
		seen[q.Name] = true
	}
}

func TestBuilder_QuotesLiterals(t *testing.T) {
	q := NewBuilder("db", "t").CharacterSummary("O'NEIL")
	assert.Contains(t, q.SQL, "character = 'O''NEIL'")
	assert.False(t, strings.Contains(q.SQL, "'O'NEIL'"))
}

func TestBuilder_QuotesIdentifiers(t *testing.T) {
	q := NewBuilder(`we"ird`, "t").TotalPlayState()
	assert.Contains(t, q.SQL, `"we""ird"."t"`)
}

func TestBuilder_RankingLimits(t *testing.T) {
	b := NewBuilder("db", "t")
	assert.Contains(t, b.ScoreRanking(10).SQL, "score_rank <= 10")
	assert.Contains(t, b.CharacterRanking("PANDA", 5).SQL, "score_rank <= 5")
	assert.Contains(t, b.CharacterRanking("PANDA", 5).SQL, "and character = 'PANDA'")
	assert.NotContains(t, b.ScoreRanking(10).SQL, "and character =")
}

func TestBuilder_CharacterRecentSince(t *testing.T) {
	q := NewBuilder("db", "t").CharacterRecent("PANDA", "2026-01-01T00:00:00.000Z")
	assert.Contains(t, q.SQL, "created >= '2026-01-01T00:00:00.000Z'")
	assert.Contains(t, q.SQL, "order by\n  created desc")
}
