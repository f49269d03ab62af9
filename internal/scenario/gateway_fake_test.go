package scenario

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

const testTenant = "tenant-a"

var testNow = time.Date(2024, 1, 15, 10, 37, 12, 0, time.UTC)

// stub answers every gateway call whose normalised SQL contains match.
type stub struct {
	match    string
	rows     []repository.Row
	affected int64
	err      error
}

type call struct {
	op   string
	sql  string
	args []any
	rows [][]any
}

// fakeGateway records calls and answers them from stubs. Unmatched calls
// succeed: Execute affects one row, fetches are empty, inserts get
// sequential ids and batches affect every row.
type fakeGateway struct {
	stubs  []*stub
	calls  []call
	nextID int64
}

func (f *fakeGateway) on(match string) *stub {
	s := &stub{match: match}
	f.stubs = append(f.stubs, s)
	return s
}

func (s *stub) returns(rows ...repository.Row) *stub {
	s.rows = rows
	return s
}

func (s *stub) affects(n int64) *stub {
	s.affected = n
	return s
}

func (s *stub) fails(err error) *stub {
	s.err = err
	return s
}

func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func (f *fakeGateway) find(sql string) *stub {
	for _, s := range f.stubs {
		if strings.Contains(sql, s.match) {
			return s
		}
	}
	return nil
}

func (f *fakeGateway) record(op, sql string, args []any, rows [][]any) (string, *stub) {
	sql = normalize(sql)
	f.calls = append(f.calls, call{op: op, sql: sql, args: args, rows: rows})
	return sql, f.find(sql)
}

func (f *fakeGateway) Execute(_ context.Context, sql string, args ...any) (int64, error) {
	_, s := f.record("execute", sql, args, nil)
	if s == nil {
		return 1, nil
	}
	return s.affected, s.err
}

func (f *fakeGateway) InsertReturning(_ context.Context, sql string, args ...any) (int64, error) {
	_, s := f.record("insert", sql, args, nil)
	if s != nil && s.err != nil {
		return 0, s.err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeGateway) FetchOne(_ context.Context, sql string, args ...any) (repository.Row, error) {
	_, s := f.record("fetch_one", sql, args, nil)
	if s == nil || len(s.rows) == 0 {
		if s != nil {
			return nil, s.err
		}
		return nil, nil
	}
	return s.rows[0], s.err
}

func (f *fakeGateway) FetchAll(_ context.Context, sql string, args ...any) ([]repository.Row, error) {
	_, s := f.record("fetch_all", sql, args, nil)
	if s == nil {
		return []repository.Row{}, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.rows == nil {
		return []repository.Row{}, nil
	}
	return s.rows, nil
}

func (f *fakeGateway) ExecuteBatch(_ context.Context, sql string, rows [][]any) (int64, error) {
	_, s := f.record("batch", sql, nil, rows)
	if s == nil {
		return int64(len(rows)), nil
	}
	return s.affected, s.err
}

// callsMatching returns the recorded calls whose SQL contains match.
func (f *fakeGateway) callsMatching(match string) []call {
	var out []call
	for _, c := range f.calls {
		if strings.Contains(c.sql, match) {
			out = append(out, c)
		}
	}
	return out
}

func newTestEnv() *Env {
	return &Env{
		TenantID: testTenant,
		Now:      testNow,
		Rand:     NewRandom(42),
		Log:      zerolog.Nop(),
	}
}

// validParams validates raw against the embedded catalog entry for id.
func validParams(t *testing.T, id string, raw map[string]any) catalog.Params {
	t.Helper()

	reg, err := catalog.Default()
	require.NoError(t, err)
	s, err := reg.Find(id)
	require.NoError(t, err)

	p, err := s.Validate(raw, testNow)
	require.NoError(t, err)
	return p
}

// run executes the registered handler for id.
func run(t *testing.T, gw repository.Gateway, id string, raw map[string]any) (map[string]any, error) {
	t.Helper()

	h, ok := DefaultRegistry().Lookup(id)
	require.True(t, ok, "no handler for %s", id)
	return h.Run(context.Background(), gw, newTestEnv(), validParams(t, id, raw))
}
