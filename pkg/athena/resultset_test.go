package athena

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSet_NamedAccess(t *testing.T) {
	rs := NewResultSet(
		[]Column{{Name: "character", Type: "varchar"}, {Name: "High_Score", Type: "integer"}, {Name: "average_score", Type: "double"}},
		[][]*string{{aws.String("PANDA"), aws.String("1200"), aws.String("950.5")}},
	)
	require.NoError(t, rs.Require("character", "high_score", "average_score"))

	row := rs.Rows[0]
	assert.Equal(t, "PANDA", row.String("character"))

	hs, err := row.Int("high_score")
	require.NoError(t, err)
	assert.Equal(t, 1200, hs)

	avg, err := row.Float("average_score")
	require.NoError(t, err)
	assert.InDelta(t, 950.5, avg, 0.0001)
}

func TestResultSet_RequireReportsMissing(t *testing.T) {
	rs := NewResultSet([]Column{{Name: "mode"}}, nil)
	err := rs.Require("mode", "play_count", "high_score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "play_count, high_score")
}

func TestRow_NullAndBadNumbers(t *testing.T) {
	rs := NewResultSet([]Column{{Name: "a"}, {Name: "b"}}, [][]*string{{nil, aws.String("x")}})
	row := rs.Rows[0]

	assert.Equal(t, "", row.String("a"))
	assert.Equal(t, "", row.String("unknown"))

	_, err := row.Int("b")
	assert.Error(t, err)
	_, err = row.Float("a")
	assert.Error(t, err)
}
