package report

import (
	"fmt"
	"strings"
)

// Column aliases read by the decoders.
const (
	colArmament         = "armament"
	colMode             = "mode"
	colScorePerArmlevel = "score_per_armlevel"
	colCharacter        = "character"
	colPlayCount        = "play_count"
	colHighScore        = "high_score"
	colAverageScore     = "average_score"
	colScore            = "score"
	colScoreRank        = "score_rank"
	colArmamentsJSON    = "armaments_json"
	colReasonsJSON      = "reasons_json"
	colCreated          = "created"
	colPlayDate         = "play_date"
	colMissSituation    = "miss_situation"
)

// Query is a SQL statement and the column aliases its decoder reads.
type Query struct {
	Name    string
	SQL     string
	Columns []string
}

// Builder renders the report queries for one table.
type Builder struct {
	table string
}

// NewBuilder creates a Builder for "database"."table".
func NewBuilder(database, table string) *Builder {
	return &Builder{table: quoteIdent(database) + "." + quoteIdent(table)}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// playFilter excludes placeholder records written for images that were not
// screenshots.
const playFilter = "cardinality(armaments) > 0"

var scoreDataColumns = []string{colPlayCount, colHighScore, colAverageScore}

// ScorePerArmlevel averages score per armament level for each armament and mode.
func (b *Builder) ScorePerArmlevel() Query {
	return Query{
		Name: "score_per_armlevel",
		SQL: fmt.Sprintf(`select
  arms.name as %s
  , mode as %s
  , sum(score) / sum(arms.level) as %s
from
  %s
  cross join unnest(armaments) as t(arms)
where
  %s
group by
  arms.name
  , mode
having
  sum(arms.level) > 0
order by
  mode
  , %s`, colArmament, colMode, colScorePerArmlevel, b.table, playFilter, colScorePerArmlevel),
		Columns: []string{colArmament, colMode, colScorePerArmlevel},
	}
}

func (b *Builder) characterStats(name, extra string) Query {
	return Query{
		Name: name,
		SQL: fmt.Sprintf(`select
  character as %s
  , mode as %s
  , count(*) as %s
  , max(score) as %s
  , avg(score) as %s
from
  %s
where 1=1
  and %s%s
group by
  character
  , mode`, colCharacter, colMode, colPlayCount, colHighScore, colAverageScore, b.table, playFilter, extra),
		Columns: append([]string{colCharacter, colMode}, scoreDataColumns...),
	}
}

// CharacterList aggregates every named character by mode.
func (b *Builder) CharacterList() Query {
	return b.characterStats("character_list", "\n  and character <> ''")
}

// CharacterSummary aggregates one character by mode. name must already be a
// catalog character.
func (b *Builder) CharacterSummary(name string) Query {
	return b.characterStats("character_summary", "\n  and character = "+quoteLiteral(name))
}

func (b *Builder) ranking(name, extra string, limit int) Query {
	return Query{
		Name: name,
		SQL: fmt.Sprintf(`select * from
  (select
    character as %s
    , mode as %s
    , score as %s
    , row_number() over (partition by mode order by score desc) as %s
    , cast(armaments as json) as %s
    , cast(reasons as json) as %s
    , created as %s
  from
    %s
  where 1=1
    and %s%s
  )
where 1=1
  and %s <= %d
order by
  %s
  , %s`, colCharacter, colMode, colScore, colScoreRank, colArmamentsJSON, colReasonsJSON, colCreated,
			b.table, playFilter, extra, colScoreRank, limit, colMode, colScoreRank),
		Columns: []string{colCharacter, colMode, colScore, colScoreRank, colArmamentsJSON, colReasonsJSON, colCreated},
	}
}

// ScoreRanking lists the best plays of each mode.
func (b *Builder) ScoreRanking(limit int) Query {
	return b.ranking("score_ranking", "", limit)
}

// CharacterRanking lists the best plays of one character in each mode.
func (b *Builder) CharacterRanking(name string, limit int) Query {
	return b.ranking("character_ranking", "\n    and character = "+quoteLiteral(name), limit)
}

// TotalPlayState aggregates every play by mode.
func (b *Builder) TotalPlayState() Query {
	return Query{
		Name: "total_play_state",
		SQL: fmt.Sprintf(`select
  mode as %s
  , count(*) as %s
  , max(score) as %s
  , avg(score) as %s
from
  %s
where 1=1
  and %s
group by
  mode
order by
  mode`, colMode, colPlayCount, colHighScore, colAverageScore, b.table, playFilter),
		Columns: append([]string{colMode}, scoreDataColumns...),
	}
}

// DailyPlaySummary aggregates plays per creation day and mode, newest first.
func (b *Builder) DailyPlaySummary() Query {
	return Query{
		Name: "daily_play_summary",
		SQL: fmt.Sprintf(`select
  substring(created, 1, 10) as %s
  , mode as %s
  , count(*) as %s
  , max(score) as %s
  , avg(score) as %s
from
  %s
where 1=1
  and %s
group by
  substring(created, 1, 10)
  , mode
order by
  %s desc
  , %s`, colPlayDate, colMode, colPlayCount, colHighScore, colAverageScore, b.table, playFilter, colPlayDate, colMode),
		Columns: append([]string{colPlayDate, colMode}, scoreDataColumns...),
	}
}

// CharacterRecent lists one character's plays created at or after since, a
// timestamp in the stored created format.
func (b *Builder) CharacterRecent(name, since string) Query {
	return Query{
		Name: "character_recent",
		SQL: fmt.Sprintf(`select
  created as %s
  , character as %s
  , mode as %s
  , score as %s
  , cast(armaments as json) as %s
  , cast(reasons as json) as %s
  , misssituation as %s
from
  %s
where 1=1
  and %s
  and character = %s
  and created >= %s
order by
  created desc`, colCreated, colCharacter, colMode, colScore, colArmamentsJSON, colReasonsJSON, colMissSituation,
			b.table, playFilter, quoteLiteral(name), quoteLiteral(since)),
		Columns: []string{colCreated, colCharacter, colMode, colScore, colArmamentsJSON, colReasonsJSON, colMissSituation},
	}
}
