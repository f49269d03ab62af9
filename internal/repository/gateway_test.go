package repository

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRowset(t *testing.T) {
	sql, args, err := ExpandRowset(
		"INSERT INTO mes_defect (a, b) VALUES :rows ON CONFLICT DO NOTHING",
		[][]any{{1, "x"}, {2, "y"}, {3, "z"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO mes_defect (a, b) VALUES ($1, $2), ($3, $4), ($5, $6) ON CONFLICT DO NOTHING", sql)
	assert.Equal(t, []any{1, "x", 2, "y", 3, "z"}, args)
}

func TestExpandRowsetRejectsRaggedRows(t *testing.T) {
	_, _, err := ExpandRowset("INSERT INTO t VALUES :rows", [][]any{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestExpandRowsetRequiresPlaceholder(t *testing.T) {
	_, _, err := ExpandRowset("INSERT INTO t VALUES ($1)", [][]any{{1}})
	assert.Error(t, err)
}

type execRecorder struct {
	Querier
	statements []string
	argCounts  []int
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.statements = append(e.statements, sql)
	e.argCounts = append(e.argCounts, len(args))
	return pgconn.NewCommandTag("INSERT 0 " + strconv.Itoa(len(args)/3)), nil
}

func TestExecuteBatchChunksLargeRowsets(t *testing.T) {
	rec := &execRecorder{}
	gw := NewPgxGateway(rec)

	rows := make([][]any, 30000)
	for i := range rows {
		rows[i] = []any{i, i, i}
	}

	n, err := gw.ExecuteBatch(context.Background(), "INSERT INTO t (a, b, c) VALUES :rows", rows)
	require.NoError(t, err)

	require.Len(t, rec.statements, 2)
	assert.Equal(t, 21845*3, rec.argCounts[0])
	assert.Equal(t, (30000-21845)*3, rec.argCounts[1])
	assert.Equal(t, int64(30000), n)
}

func TestExecuteBatchEmpty(t *testing.T) {
	rec := &execRecorder{}
	n, err := NewPgxGateway(rec).ExecuteBatch(context.Background(), "INSERT INTO t VALUES :rows", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.statements)
}

func TestClassify(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	err := classify(unique, "failed to insert row")
	assert.Equal(t, errors.ErrCodeIntegrity, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "duplicate key value")

	fk := &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
	assert.Equal(t, errors.ErrCodeIntegrity, errors.CodeOf(classify(fk, "x")))

	timeout := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	assert.Equal(t, errors.ErrCodeDatabase, errors.CodeOf(classify(timeout, "x")))

	assert.Equal(t, errors.ErrCodeDatabase, errors.CodeOf(classify(stderrors.New("conn reset"), "x")))
}

type failingQuerier struct {
	t *testing.T
}

func (f failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	f.t.Fatal("unexpected query")
	return nil, nil
}

func TestOptionsUnknownSourceIsEmpty(t *testing.T) {
	repo := NewOptionsRepository(failingQuerier{t: t}, "tenant-a")

	opts, err := repo.Options(context.Background(), "users; DROP TABLE erp_customer", "")
	require.NoError(t, err)
	assert.Empty(t, opts)
	assert.NotNil(t, opts)
}

func TestOptionsRejectsStackedFilter(t *testing.T) {
	repo := NewOptionsRepository(failingQuerier{t: t}, "tenant-a")

	_, err := repo.Options(context.Background(), "lines", "is_active; DELETE FROM mes_equipment")
	assert.Error(t, err)
}

func TestBuildOptionsQuery(t *testing.T) {
	src := optionSources["lines"]

	assert.Equal(t,
		"SELECT line_code::text AS value, line_name::text AS label FROM mes_production_line WHERE tenant_id = $1 ORDER BY line_name LIMIT 100",
		buildOptionsQuery(src, ""))
	assert.Equal(t,
		"SELECT line_code::text AS value, line_name::text AS label FROM mes_production_line WHERE tenant_id = $1 AND (is_active = TRUE) ORDER BY line_name LIMIT 100",
		buildOptionsQuery(src, " is_active = TRUE "))
}

func TestOptionSourceNames(t *testing.T) {
	assert.Equal(t, []string{
		"customers", "departments", "equipment", "goods_receipts", "lines",
		"products", "purchase_orders", "sales_orders", "work_orders",
	}, OptionSourceNames())
	assert.True(t, IsOptionSource("equipment"))
	assert.False(t, IsOptionSource("employees"))
}
