package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
)

// OptionsLimit caps every options listing.
const OptionsLimit = 100

// OptionSource maps a public source name to the table and columns it reads.
type OptionSource struct {
	Table       string
	CodeColumn  string
	LabelColumn string
}

// optionSources is the only place table and column identifiers are
// interpolated into SQL.
var optionSources = map[string]OptionSource{
	"lines":           {Table: "mes_production_line", CodeColumn: "line_code", LabelColumn: "line_name"},
	"equipment":       {Table: "mes_equipment", CodeColumn: "equipment_code", LabelColumn: "equipment_name"},
	"customers":       {Table: "erp_customer", CodeColumn: "customer_code", LabelColumn: "customer_name"},
	"products":        {Table: "erp_product", CodeColumn: "product_code", LabelColumn: "product_name"},
	"work_orders":     {Table: "erp_work_order", CodeColumn: "work_order_no", LabelColumn: "work_order_no"},
	"sales_orders":    {Table: "erp_sales_order", CodeColumn: "order_no", LabelColumn: "order_no"},
	"purchase_orders": {Table: "erp_purchase_order", CodeColumn: "po_no", LabelColumn: "po_no"},
	"goods_receipts":  {Table: "erp_goods_receipt", CodeColumn: "receipt_no", LabelColumn: "receipt_no"},
	"departments":     {Table: "erp_department", CodeColumn: "department_code", LabelColumn: "department_name"},
}

// IsOptionSource reports whether name is whitelisted.
func IsOptionSource(name string) bool {
	_, ok := optionSources[name]
	return ok
}

// OptionSourceNames returns the whitelisted source names, sorted.
func OptionSourceNames() []string {
	names := make([]string, 0, len(optionSources))
	for name := range optionSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option is one selectable value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// rowQuerier is the read-only slice of Querier the resolver needs.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OptionsRepository answers "what are the valid values for this parameter".
type OptionsRepository struct {
	db       rowQuerier
	tenantID string
}

// NewOptionsRepository creates an OptionsRepository scoped to one tenant.
func NewOptionsRepository(db rowQuerier, tenantID string) *OptionsRepository {
	return &OptionsRepository{db: db, tenantID: tenantID}
}

// Options lists up to OptionsLimit values for source. filter is an optional
// SQL predicate that must come from the scenario catalog, never from a
// request. Unknown sources yield an empty list.
func (r *OptionsRepository) Options(ctx context.Context, source, filter string) ([]Option, error) {
	src, ok := optionSources[source]
	if !ok {
		return []Option{}, nil
	}
	if strings.Contains(filter, ";") {
		return nil, errors.New(errors.ErrCodeInternal, "option filter must be a single predicate")
	}

	rows, err := r.db.Query(ctx, buildOptionsQuery(src, filter), r.tenantID)
	if err != nil {
		return nil, classify(err, "failed to list options")
	}

	options, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Option, error) {
		var o Option
		err := row.Scan(&o.Value, &o.Label)
		return o, err
	})
	if err != nil {
		return nil, classify(err, "failed to scan options")
	}
	return options, nil
}

func buildOptionsQuery(src OptionSource, filter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s::text AS value, %s::text AS label FROM %s WHERE tenant_id = $1",
		src.CodeColumn, src.LabelColumn, src.Table)
	if f := strings.TrimSpace(filter); f != "" {
		fmt.Fprintf(&b, " AND (%s)", f)
	}
	fmt.Fprintf(&b, " ORDER BY %s LIMIT %d", src.LabelColumn, OptionsLimit)
	return b.String()
}
