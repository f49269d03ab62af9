package scenario

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

func businessHandlers() []Handler {
	return []Handler{
		{ID: "BS001", Name: "주문 취소", Run: orderCancellation},
		{ID: "BS002", Name: "공급업체 납기 지연", Run: supplierDelay},
	}
}

func orderCancellation(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	orderNo := p.String("order_no")
	reason := p.String("cancel_reason")
	cascade := p.Bool("cancel_production")

	so, err := requireRow(ctx, gw, "수주", orderNo, `
		UPDATE erp_sales_order
		SET status = 'cancelled', remarks = $1
		WHERE tenant_id = $2 AND order_no = $3
		RETURNING id
	`, reason, env.TenantID, orderNo)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"message":                     fmt.Sprintf("%s 수주 취소", orderNo),
		"order_no":                    orderNo,
		"cancel_reason":               reason,
		"cancel_production":           cascade,
		"work_orders_cancelled":       0,
		"production_orders_cancelled": int64(0),
	}
	if !cascade {
		return result, nil
	}

	wos, err := gw.FetchAll(ctx, `
		UPDATE erp_work_order
		SET status = 'cancelled', remarks = $1
		WHERE tenant_id = $2 AND sales_order_id = $3 AND status <> 'cancelled'
		RETURNING work_order_no
	`, reason, env.TenantID, so.Int64("id"))
	if err != nil {
		return nil, err
	}

	woNos := make([]string, 0, len(wos))
	for _, w := range wos {
		woNos = append(woNos, w.String("work_order_no"))
	}
	result["work_orders_cancelled"] = len(woNos)
	result["work_order_nos"] = woNos

	if len(woNos) > 0 {
		n, err := gw.Execute(ctx, `
			UPDATE mes_production_order
			SET status = 'cancelled'
			WHERE tenant_id = $1 AND work_order_no = ANY($2) AND status NOT IN ('completed', 'cancelled')
		`, env.TenantID, woNos)
		if err != nil {
			return nil, err
		}
		result["production_orders_cancelled"] = n
	}

	return result, nil
}

func supplierDelay(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	poNo := p.String("po_no")
	days := p.Int("delay_days")

	po, err := requireRow(ctx, gw, "발주", poNo, `
		UPDATE erp_purchase_order
		SET expected_date = expected_date + make_interval(days => $1)
		WHERE tenant_id = $2 AND po_no = $3
		RETURNING expected_date
	`, days, env.TenantID, poNo)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":       fmt.Sprintf("%s 발주 입고 예정일 %d일 연기", poNo, days),
		"po_no":         poNo,
		"delay_days":    days,
		"expected_date": formatDate(po.Time("expected_date")),
	}, nil
}
