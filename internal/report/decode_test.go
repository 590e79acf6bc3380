package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timelocker/tracker/internal/catalog"
)

func TestDecodeArmaments_ComplementsInCatalogOrder(t *testing.T) {
	cat := catalog.Default()

	arms, err := decodeArmaments(cat, `[["SUPPORTER",2],["BEAM",null]]`)
	require.NoError(t, err)
	require.Len(t, arms, 12)

	names := make([]string, len(arms))
	for i, a := range arms {
		names[i] = a.Name
		assert.NotContains(t, a.Name, "_")
	}
	assert.Contains(t, names, "SUPPORTER")
	for _, a := range arms {
		switch a.Name {
		case "SUPPORTER":
			assert.Equal(t, 2, *a.Level)
		case "BEAM":
			assert.Nil(t, a.Level)
		}
	}
}

func TestDecodeArmaments_Empty(t *testing.T) {
	arms, err := decodeArmaments(catalog.Default(), "")
	require.NoError(t, err)
	assert.Len(t, arms, 12)
}

func TestDecodeArmaments_BadPair(t *testing.T) {
	_, err := decodeArmaments(catalog.Default(), `[["BEAM"]]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pair has 1 elements")

	_, err = decodeArmaments(catalog.Default(), `[["BEAM","three"]]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode armament level")
}

func TestDecodeReasons(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"null", []string{}},
		{"[]", []string{}},
		{`["greed","panic"]`, []string{"greed", "panic"}},
	}
	for _, tt := range tests {
		got, err := decodeReasons(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := decodeReasons("{")
	assert.Error(t, err)
}
