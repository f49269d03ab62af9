package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/database"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
)

// RowsPlaceholder marks where ExecuteBatch expands its rowset, e.g.
// `INSERT INTO t (a, b) VALUES :rows ON CONFLICT DO NOTHING`.
const RowsPlaceholder = ":rows"

// maxBindParams is PostgreSQL's per-statement bind parameter limit.
const maxBindParams = 65535

// Gateway is the only path handlers have to the database. All values are
// bound positionally ($1, $2, ...); identifiers never come from callers.
type Gateway interface {
	// Execute performs a write and returns the affected row count.
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	// InsertReturning runs an INSERT ... RETURNING id and returns the key.
	InsertReturning(ctx context.Context, sql string, args ...any) (int64, error)
	// FetchOne returns the first row, or nil when the result is empty.
	FetchOne(ctx context.Context, sql string, args ...any) (Row, error)
	// FetchAll returns every row in order; never nil.
	FetchAll(ctx context.Context, sql string, args ...any) ([]Row, error)
	// ExecuteBatch expands RowsPlaceholder with rows and returns the total
	// affected count.
	ExecuteBatch(ctx context.Context, sql string, rows [][]any) (int64, error)
}

// Querier is satisfied by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxGateway implements Gateway over a pgx querier, normally a transaction.
type PgxGateway struct {
	q Querier
}

// NewPgxGateway creates a gateway bound to q.
func NewPgxGateway(q Querier) *PgxGateway {
	return &PgxGateway{q: q}
}

// Execute performs a write statement.
func (g *PgxGateway) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := g.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err, "failed to execute statement")
	}
	return tag.RowsAffected(), nil
}

// InsertReturning runs an insert whose SQL returns the generated key.
func (g *PgxGateway) InsertReturning(ctx context.Context, sql string, args ...any) (int64, error) {
	var id int64
	if err := g.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, classify(err, "failed to insert row")
	}
	return id, nil
}

// FetchOne returns a single row as a column->value map.
func (g *PgxGateway) FetchOne(ctx context.Context, sql string, args ...any) (Row, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err, "failed to query row")
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "failed to read row")
	}
	return Row(m), nil
}

// FetchAll returns all rows as column->value maps.
func (g *PgxGateway) FetchAll(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := g.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err, "failed to query rows")
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classify(err, "failed to read rows")
	}

	result := make([]Row, 0, len(maps))
	for _, m := range maps {
		result = append(result, Row(m))
	}
	return result, nil
}

// ExecuteBatch collapses many single-row inserts into multi-row statements.
// Rowsets wider than the bind parameter limit are split into chunks; each
// chunk runs on the same querier, so inside a transaction they commit together.
func (g *PgxGateway) ExecuteBatch(ctx context.Context, sql string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(rows[0])
	if width == 0 {
		return 0, errors.New(errors.ErrCodeInternal, "batch rows must have at least one column")
	}

	chunk := maxBindParams / width
	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}

		stmt, args, err := ExpandRowset(sql, rows[start:end])
		if err != nil {
			return total, err
		}
		n, err := g.Execute(ctx, stmt, args...)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ExpandRowset replaces RowsPlaceholder with one positional tuple per row and
// returns the flattened arguments.
func ExpandRowset(sql string, rows [][]any) (string, []any, error) {
	if strings.Count(sql, RowsPlaceholder) != 1 {
		return "", nil, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("batch statement must contain %s exactly once", RowsPlaceholder))
	}
	if len(rows) == 0 {
		return "", nil, errors.New(errors.ErrCodeInternal, "batch requires at least one row")
	}

	width := len(rows[0])
	args := make([]any, 0, width*len(rows))
	var b strings.Builder
	n := 1
	for i, row := range rows {
		if len(row) != width {
			return "", nil, errors.New(errors.ErrCodeInternal,
				fmt.Sprintf("batch row %d has %d columns, expected %d", i, len(row), width))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
		args = append(args, row...)
	}

	return strings.Replace(sql, RowsPlaceholder, b.String(), 1), args, nil
}

// classify maps driver errors onto the error taxonomy. Constraint violations
// become integrity errors; everything else is a database error. The driver
// text is kept so callers see it unchanged.
func classify(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23502", "23514":
			return errors.Wrap(err, errors.ErrCodeIntegrity, message)
		}
	}
	return errors.Wrap(err, errors.ErrCodeDatabase, message)
}

// TxManager opens one transaction per scenario call and hands the handler a
// gateway bound to it.
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a TxManager.
func NewTxManager(db *database.DB) *TxManager {
	return &TxManager{db: db}
}

// InTransaction runs fn with a transactional gateway. Any error rolls the
// whole call back.
func (m *TxManager) InTransaction(ctx context.Context, fn func(gw Gateway) error) error {
	err := m.db.InTransaction(ctx, func(tx pgx.Tx) error {
		return fn(NewPgxGateway(tx))
	})
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return classify(err, "transaction failed")
}
