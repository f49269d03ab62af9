package scenario

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

// fallbackLine is used when no active production line exists.
const fallbackLine = "LINE001"

// defaultUnitPrice applies to products without a selling price.
var defaultUnitPrice = decimal.NewFromInt(10000)

func productionHandlers() []Handler {
	return []Handler{
		{ID: "PR001", Name: "긴급 주문", Run: urgentOrder},
		{ID: "PR002", Name: "생산 지연", Run: productionDelay},
		{ID: "PR003", Name: "근무 교대 변경", Run: shiftChange},
	}
}

func urgentOrder(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	customerCode := p.String("customer_code")
	productCode := p.String("product_code")
	quantity := p.Int("quantity")
	priority := p.String("priority")

	if _, err := requireRow(ctx, gw, "고객", customerCode, `
		SELECT customer_code FROM erp_customer WHERE tenant_id = $1 AND customer_code = $2
	`, env.TenantID, customerCode); err != nil {
		return nil, err
	}

	product, err := requireRow(ctx, gw, "제품", productCode, `
		SELECT product_code, selling_price FROM erp_product WHERE tenant_id = $1 AND product_code = $2
	`, env.TenantID, productCode)
	if err != nil {
		return nil, err
	}

	price := defaultUnitPrice
	if !product.IsNull("selling_price") {
		price = product.Decimal("selling_price")
	}
	total := price.Mul(decimal.NewFromInt(int64(quantity)))

	today := env.Today()
	delivery := today.AddDate(0, 0, p.Int("due_days"))

	// ── Sales order ─────────────────────────────────────────────
	orderNo := env.salesOrderNo()
	salesOrderID, err := gw.InsertReturning(ctx, `
		INSERT INTO erp_sales_order (
			tenant_id, order_no, customer_code, order_date, delivery_date,
			status, priority, total_amount, remarks
		) VALUES ($1, $2, $3, $4, $5, 'confirmed', $6, $7, $8)
		RETURNING id
	`, env.TenantID, orderNo, customerCode, today, delivery, priority, total, "긴급 주문")
	if err != nil {
		return nil, err
	}

	if _, err := gw.Execute(ctx, `
		INSERT INTO erp_sales_order_item (
			tenant_id, sales_order_id, line_no, product_code, quantity, unit_price, amount
		) VALUES ($1, $2, 1, $3, $4, $5, $6)
	`, env.TenantID, salesOrderID, productCode, quantity, price, total); err != nil {
		return nil, err
	}

	// ── Work order ──────────────────────────────────────────────
	workOrderNo := env.workOrderNo()
	workOrderID, err := gw.InsertReturning(ctx, `
		INSERT INTO erp_work_order (
			tenant_id, work_order_no, sales_order_id, product_code, planned_qty,
			planned_start, planned_end, status, priority, remarks
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'released', $8, $9)
		RETURNING id
	`, env.TenantID, workOrderNo, salesOrderID, productCode, quantity, today, delivery, priority, "긴급 주문 "+orderNo)
	if err != nil {
		return nil, err
	}

	// ── Production order ────────────────────────────────────────
	lineCode := fallbackLine
	line, err := gw.FetchOne(ctx, `
		SELECT line_code FROM mes_production_line
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY line_code
		LIMIT 1
	`, env.TenantID)
	if err != nil {
		return nil, err
	}
	if line != nil {
		lineCode = line.String("line_code")
	}

	prodOrderNo := env.productionOrderNo()
	prodOrderID, err := gw.InsertReturning(ctx, `
		INSERT INTO mes_production_order (
			tenant_id, prod_order_no, work_order_no, line_code, product_code,
			target_qty, good_qty, defect_qty, status, planned_start, planned_end, priority
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 'planned', $7, $8, $9)
		RETURNING id
	`, env.TenantID, prodOrderNo, workOrderNo, lineCode, productCode, quantity, today, delivery, priority)
	if err != nil {
		return nil, err
	}

	env.Log.Debug().
		Str("order_no", orderNo).
		Str("work_order_no", workOrderNo).
		Str("production_order_no", prodOrderNo).
		Msg("Urgent order created")

	return map[string]any{
		"message":             fmt.Sprintf("긴급 주문 %s 생성", orderNo),
		"order_no":            orderNo,
		"work_order_no":       workOrderNo,
		"production_order_no": prodOrderNo,
		"sales_order_id":      salesOrderID,
		"work_order_id":       workOrderID,
		"production_order_id": prodOrderID,
		"customer_code":       customerCode,
		"product_code":        productCode,
		"line_code":           lineCode,
		"quantity":            quantity,
		"unit_price":          price.InexactFloat64(),
		"total_amount":        total.InexactFloat64(),
		"priority":            priority,
		"delivery_date":       formatDate(delivery),
	}, nil
}

func productionDelay(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	workOrderNo := p.String("work_order_no")
	days := p.Int("delay_days")
	reason := p.String("delay_reason")

	current, err := requireRow(ctx, gw, "작업지시", workOrderNo, `
		SELECT planned_end FROM erp_work_order
		WHERE tenant_id = $1 AND work_order_no = $2
		FOR UPDATE
	`, env.TenantID, workOrderNo)
	if err != nil {
		return nil, err
	}

	updated, err := requireRow(ctx, gw, "작업지시", workOrderNo, `
		UPDATE erp_work_order
		SET planned_end = planned_end + make_interval(days => $1),
		    status = 'in_progress',
		    remarks = $2
		WHERE tenant_id = $3 AND work_order_no = $4
		RETURNING planned_end
	`, days, reason, env.TenantID, workOrderNo)
	if err != nil {
		return nil, err
	}

	moved, err := gw.Execute(ctx, `
		UPDATE erp_sales_order
		SET delivery_date = delivery_date + make_interval(days => $1)
		WHERE tenant_id = $2 AND id IN (
			SELECT sales_order_id FROM erp_work_order
			WHERE tenant_id = $2 AND work_order_no = $3
		)
	`, days, env.TenantID, workOrderNo)
	if err != nil {
		return nil, err
	}
	if moved > 1 {
		return nil, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("작업지시 %s에 연결된 수주가 %d건입니다", workOrderNo, moved))
	}

	return map[string]any{
		"message":              fmt.Sprintf("%s 작업지시 %d일 지연", workOrderNo, days),
		"work_order_no":        workOrderNo,
		"delay_days":           days,
		"delay_reason":         reason,
		"old_planned_end":      formatDate(current.Time("planned_end")),
		"new_planned_end":      formatDate(updated.Time("planned_end")),
		"sales_orders_updated": moved,
	}, nil
}

func shiftChange(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	lineCode := p.String("line_code")
	pattern := p.String("shift_pattern")

	line, err := requireRow(ctx, gw, "라인", lineCode, `
		SELECT shift_pattern FROM mes_production_line
		WHERE tenant_id = $1 AND line_code = $2
		FOR UPDATE
	`, env.TenantID, lineCode)
	if err != nil {
		return nil, err
	}

	if _, err := gw.Execute(ctx, `
		UPDATE mes_production_line SET shift_pattern = $1 WHERE tenant_id = $2 AND line_code = $3
	`, pattern, env.TenantID, lineCode); err != nil {
		return nil, err
	}

	return map[string]any{
		"message":          fmt.Sprintf("%s 라인 교대 패턴 변경: %s", lineCode, pattern),
		"line_code":        lineCode,
		"previous_pattern": line.String("shift_pattern"),
		"shift_pattern":    pattern,
	}, nil
}
