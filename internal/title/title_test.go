package title

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacter(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"bracket", "[FOO] bar", "FOO"},
		{"colon", "FOO: bar", "FOO"},
		{"no markers", "no markers here", ""},
		{"empty", "", ""},
		{"bracket wins over colon", "[ICE BEAM LOCKER]x:y", "ICE BEAM LOCKER"},
		{"empty brackets fall back to colon", "[]A:b", "[]A"},
		{"unclosed bracket", "[FOO bar", ""},
		{"full-width colon", "MUCUS：壁に激突", "MUCUS"},
		{"full-width letters", "［ＴＨＥ ＤＯＧ］ミス", "THE DOG"},
		{"japanese sentence", "[PANDA]弾幕に被弾。油断、欲張り", "PANDA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Character(tt.title))
		})
	}
}

func TestReasons(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"second sentence split", "A。B、C、D", []string{"B", "C", "D"}},
		{"single sentence", "single sentence", []string{}},
		{"empty", "", []string{}},
		{"trailing stop", "A。", []string{}},
		{"third sentence ignored", "A。B。C、D", []string{"B"}},
		{"half-width punctuation", "A｡B､C", []string{"B", "C"}},
		{"blank entries dropped", "A。B、、 C ", []string{"B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reasons(tt.title))
		})
	}
}

func TestMissSituation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"colon", "FOO:died to laser。rest", "died to laser"},
		{"bracket", "[FOO]hit a wall。rest", "hit a wall"},
		{"plain", "just a sentence。x、y", "just a sentence"},
		{"empty", "", ""},
		{"colon only in later sentence", "[FOO]a。b:c", "a"},
		{"full-width colon", "FOO：レーザー", "レーザー"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissSituation(tt.title))
		})
	}
}
