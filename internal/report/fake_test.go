package report

import (
	"context"
	"strings"
	"sync"

	"github.com/timelocker/tracker/pkg/athena"
)

// fakeQuery answers queries whose SQL contains a registered marker.
type fakeQuery struct {
	mu      sync.Mutex
	results map[string]*athena.ResultSet
	errs    map[string]error
	seen    []string
}

func newFakeQuery() *fakeQuery {
	return &fakeQuery{results: map[string]*athena.ResultSet{}, errs: map[string]error{}}
}

func (f *fakeQuery) on(marker string, rs *athena.ResultSet) *fakeQuery {
	f.results[marker] = rs
	return f
}

func (f *fakeQuery) fail(marker string, err error) *fakeQuery {
	f.errs[marker] = err
	return f
}

func (f *fakeQuery) Query(_ context.Context, sql string) (*athena.ResultSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, sql)
	for marker, err := range f.errs {
		if strings.Contains(sql, marker) {
			return nil, err
		}
	}
	for marker, rs := range f.results {
		if strings.Contains(sql, marker) {
			return rs, nil
		}
	}
	return athena.NewResultSet(nil, nil), nil
}

func (f *fakeQuery) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func s(v string) *string { return &v }

func cols(specs ...string) []athena.Column {
	out := make([]athena.Column, 0, len(specs)/2)
	for i := 0; i+1 < len(specs); i += 2 {
		out = append(out, athena.Column{Name: specs[i], Type: specs[i+1]})
	}
	return out
}

var statsColumns = cols(
	colCharacter, "varchar", colMode, "varchar",
	colPlayCount, "bigint", colHighScore, "bigint", colAverageScore, "double",
)

var rankingColumns = cols(
	colCharacter, "varchar", colMode, "varchar", colScore, "bigint", colScoreRank, "bigint",
	colArmamentsJSON, "json", colReasonsJSON, "json", colCreated, "varchar",
)
