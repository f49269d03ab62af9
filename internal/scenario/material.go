package scenario

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

func materialHandlers() []Handler {
	return []Handler{
		{ID: "MT001", Name: "자재 부족", Run: materialShortage},
		{ID: "MT002", Name: "수입검사 불합격", Run: inspectionFail},
	}
}

// remainingFraction returns 1 - percent/100 as an exact decimal.
func remainingFraction(percent float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))
}

func materialShortage(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	itemCode := p.String("item_code")
	percent := p.Float("shortage_percent")
	factor := remainingFraction(percent)

	// The self-join exposes each row's pre-update quantity.
	rows, err := gw.FetchAll(ctx, `
		WITH updated AS (
			UPDATE erp_inventory i
			SET quantity = ROUND(i.quantity * $1::numeric, 3)
			FROM erp_inventory old
			WHERE old.id = i.id AND i.tenant_id = $2 AND i.item_code = $3
			RETURNING i.warehouse_code, old.quantity AS old_quantity, i.quantity AS new_quantity
		)
		SELECT warehouse_code, old_quantity, new_quantity FROM updated ORDER BY warehouse_code
	`, factor, env.TenantID, itemCode)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NotFound("재고 품목", itemCode)
	}

	shortage := decimal.Zero
	warehouses := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		oldQty, newQty := r.Decimal("old_quantity"), r.Decimal("new_quantity")
		shortage = shortage.Add(oldQty.Sub(newQty))
		warehouses = append(warehouses, map[string]any{
			"warehouse_code": r.String("warehouse_code"),
			"old_quantity":   oldQty.InexactFloat64(),
			"new_quantity":   newQty.InexactFloat64(),
		})
	}

	requestNo := env.materialRequestNo()
	requestID, err := gw.InsertReturning(ctx, `
		INSERT INTO erp_material_request (
			tenant_id, request_no, item_code, request_type, request_qty,
			status, priority, reason, request_date
		) VALUES ($1, $2, $3, 'urgent', $4, 'pending', 'high', $5, $6)
		RETURNING id
	`, env.TenantID, requestNo, itemCode, shortage, fmt.Sprintf("재고 부족 %.1f%%", percent), env.Today())
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":          fmt.Sprintf("%s 품목 재고 %.1f%% 감소", itemCode, percent),
		"item_code":        itemCode,
		"shortage_percent": percent,
		"warehouses":       warehouses,
		"total_shortage":   shortage.InexactFloat64(),
		"request_no":       requestNo,
		"request_id":       requestID,
	}, nil
}

func inspectionFail(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	receiptNo := p.String("receipt_no")
	rate := p.Float("reject_rate")
	reason := p.String("reject_reason")
	acceptFactor := remainingFraction(rate)

	receipt, err := requireRow(ctx, gw, "입고", receiptNo, `
		SELECT id FROM erp_goods_receipt WHERE tenant_id = $1 AND receipt_no = $2
	`, env.TenantID, receiptNo)
	if err != nil {
		return nil, err
	}

	items, err := gw.FetchAll(ctx, `
		UPDATE erp_goods_receipt_item
		SET inspection_result = 'FAIL',
		    accepted_qty = ROUND(receipt_qty * $1::numeric, 3),
		    rejected_qty = receipt_qty - ROUND(receipt_qty * $1::numeric, 3),
		    remarks = $2
		WHERE tenant_id = $3 AND receipt_id = $4
		RETURNING item_code, receipt_qty, accepted_qty, rejected_qty
	`, acceptFactor, reason, env.TenantID, receipt.Int64("id"))
	if err != nil {
		return nil, err
	}

	rejected := decimal.Zero
	for _, it := range items {
		rejected = rejected.Add(it.Decimal("rejected_qty"))
	}

	return map[string]any{
		"message":        fmt.Sprintf("%s 입고 검사 불합격 처리", receiptNo),
		"receipt_no":     receiptNo,
		"reject_rate":    rate,
		"reject_reason":  reason,
		"items_updated":  len(items),
		"total_rejected": rejected.InexactFloat64(),
	}, nil
}
