package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelocker/tracker/internal/model"
)

func TestDefault_Sizes(t *testing.T) {
	c := Default()
	assert.Len(t, c.Characters(), 81)
	assert.Len(t, c.Armaments(), 12)
	assert.Equal(t, "TWIN_SHOT", c.Armaments()[0])
	assert.Equal(t, "SUPPORTER", c.Armaments()[11])
}

func TestCharacters_ReturnsCopy(t *testing.T) {
	c := Default()
	names := c.Characters()
	names[0] = "mutated"
	assert.NotEqual(t, "mutated", c.Characters()[0])
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("armaments: [A]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("characters: [X]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("armaments: [A]\ncharacters: [X, X]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = Parse([]byte("armaments: ["))
	assert.Error(t, err)
}

func TestCorrect_ExactMatchKeepsInput(t *testing.T) {
	c := Default()
	for _, name := range c.Characters() {
		assert.Equal(t, name, c.Correct(name))
		lower := strings.ToLower(name)
		assert.Equal(t, lower, c.Correct(lower))
	}
}

func TestCorrect_NearestMatch(t *testing.T) {
	c := Default()
	assert.Equal(t, "MUCUS", c.Correct("MUCUS "))
	assert.Equal(t, "T-REX", c.Correct("t rex"))
	assert.Equal(t, "WAR FROG", c.Correct("WAR FR0G"))
}

func TestCorrect_TieGoesToFirstEntry(t *testing.T) {
	c, err := Parse([]byte("armaments: [A]\ncharacters: [ABX, ABY, ABZ]\n"))
	require.NoError(t, err)
	// "ABQ" is one substitution away from all three.
	assert.Equal(t, "ABX", c.Correct("ABQ"))
}

func TestCorrect_MinimisesDistance(t *testing.T) {
	c := Default()
	for _, in := range []string{"PANDAA", "skate", "ICE BEEM LOCKER", "xyz"} {
		got := c.Correct(in)
		require.True(t, c.Valid(got))
		d := Levenshtein(strings.ToUpper(in), got)
		for _, name := range c.Characters() {
			assert.LessOrEqual(t, d, Levenshtein(strings.ToUpper(in), name), "%s vs %s", in, name)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
		{"", "", 0},
		{"RODEO STAMPEDE Ⅱ", "RODEO STAMPEDE I", 1},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%q/%q", tt.a, tt.b)
		assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "%q/%q", tt.b, tt.a)
	}
}

func TestValid(t *testing.T) {
	c := Default()
	assert.True(t, c.Valid("MUCUS"))
	assert.False(t, c.Valid("mucus"))
	assert.False(t, c.Valid("MUCUS'; drop table x; --"))
	assert.False(t, c.Valid(""))
}

func TestComplement(t *testing.T) {
	c := Default()

	out := c.Complement([]model.Armament{
		{Name: "BEAM", Level: model.LevelOf(5)},
		{Name: "MINE_BOT", Level: nil},
	})
	require.Len(t, out, 12)
	assert.Equal(t, "TWIN SHOT", out[0].Name)
	assert.Equal(t, 0, *out[0].Level)
	assert.Equal(t, "BEAM", out[4].Name)
	assert.Equal(t, 5, *out[4].Level)
	assert.Equal(t, "MINE BOT", out[6].Name)
	assert.Nil(t, out[6].Level)
	assert.Equal(t, "SUPPORTER", out[11].Name)
}

func TestComplement_AlwaysFullCatalog(t *testing.T) {
	c := Default()
	arms := c.Armaments()
	for n := 0; n <= len(arms); n++ {
		var in []model.Armament
		for _, name := range arms[:n] {
			in = append(in, model.Armament{Name: name, Level: model.LevelOf(2)})
		}
		out := c.Complement(in)
		require.Len(t, out, 12)
		for i, a := range out {
			assert.Equal(t, strings.ReplaceAll(arms[i], "_", " "), a.Name)
			if i < n {
				assert.Equal(t, 2, *a.Level)
			} else {
				assert.Equal(t, 0, *a.Level)
			}
		}
	}
}
