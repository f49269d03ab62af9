package scenario

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

// defectLabels are the Korean names stored in mes_defect.defect_type.
var defectLabels = map[string]string{
	"solder":   "납땜불량",
	"missing":  "부품누락",
	"polarity": "극성반전",
	"damage":   "부품파손",
	"position": "위치불량",
}

// holdTargets resolves a hold target type to the query that proves the
// target exists.
var holdTargets = map[string]struct {
	resource string
	sql      string
}{
	"line": {
		resource: "라인",
		sql:      `SELECT line_code FROM mes_production_line WHERE tenant_id = $1 AND line_code = $2`,
	},
	"product": {
		resource: "제품",
		sql:      `SELECT product_code FROM erp_product WHERE tenant_id = $1 AND product_code = $2`,
	},
	"order": {
		resource: "생산지시",
		sql:      `SELECT prod_order_no FROM mes_production_order WHERE tenant_id = $1 AND prod_order_no = $2`,
	},
}

func qualityHandlers() []Handler {
	return []Handler{
		{ID: "QS001", Name: "불량률 급증", Run: defectSpike},
		{ID: "QS002", Name: "품질 보류", Run: qualityHold},
	}
}

// defectCode returns DEF-<first three letters of type, upper-case>.
func defectCode(defectType string) string {
	prefix := defectType
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return "DEF-" + strings.ToUpper(prefix)
}

// defectIncrement returns how many defects to add to an order. It is at
// least one for any positive rate and never pushes defect_qty past target_qty.
func defectIncrement(target, defect int64, rate float64) int64 {
	if rate <= 0 {
		return 0
	}
	d := int64(math.Floor(float64(target) * rate / 100))
	if d < 1 {
		d = 1
	}
	if room := target - defect; d > room {
		d = room
	}
	if d < 0 {
		return 0
	}
	return d
}

func defectSpike(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	lineCode := p.String("line_code")
	rate := p.Float("defect_rate")
	types := p.Strings("defect_types")

	orders, err := gw.FetchAll(ctx, `
		SELECT id, product_code, target_qty, good_qty, defect_qty
		FROM mes_production_order
		WHERE tenant_id = $1 AND line_code = $2 AND status IN ('started', 'completed')
		ORDER BY created_at DESC, id DESC
		LIMIT 10
	`, env.TenantID, lineCode)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return emptyResult("해당 라인에 진행중인 작업이 없습니다"), nil
	}

	windowStart := env.Now
	windowEnd := windowStart
	switch p.String("duration_type") {
	case "hours":
		windowEnd = windowStart.Add(time.Duration(p.Int("duration_value")) * time.Hour)
	case "days":
		windowEnd = windowStart.AddDate(0, 0, p.Int("duration_value"))
	}

	var (
		defects  [][]any
		affected int
	)
	for _, o := range orders {
		orderID := o.Int64("id")
		d := defectIncrement(o.Int64("target_qty"), o.Int64("defect_qty"), rate)
		if d == 0 {
			continue
		}

		n, err := gw.Execute(ctx, `
			UPDATE mes_production_order
			SET defect_qty = defect_qty + $1,
			    good_qty = GREATEST(0, good_qty - $1)
			WHERE tenant_id = $2 AND id = $3
		`, d, env.TenantID, orderID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		affected++

		productCode := o.String("product_code")
		for i := int64(0); i < d; i++ {
			t := types[env.Rand.IntN(len(types))]
			defects = append(defects, []any{
				env.TenantID,
				orderID,
				windowStart.Add(time.Duration(env.Rand.IntN(61)) * time.Minute),
				defectCode(t),
				defectLabels[t],
				lineCode,
				productCode,
				1,
			})
		}
	}

	created, err := gw.ExecuteBatch(ctx, `
		INSERT INTO mes_defect (
			tenant_id, production_order_id, defect_time, defect_code,
			defect_type, line_code, product_code, quantity
		) VALUES :rows
	`, defects)
	if err != nil {
		return nil, err
	}

	env.Log.Debug().
		Str("line_code", lineCode).
		Int("affected_orders", affected).
		Int64("defect_records", created).
		Msg("Defect spike applied")

	return map[string]any{
		"message":                fmt.Sprintf("%s 라인에 불량률 %.1f%% 적용", lineCode, rate),
		"line_code":              lineCode,
		"affected_orders":        affected,
		"defect_records_created": created,
		"defect_rate":            rate,
		"defect_types":           types,
		"window_start":           windowStart.Format(timestampLayout),
		"window_end":             windowEnd.Format(timestampLayout),
	}, nil
}

func qualityHold(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	targetType := p.String("target_type")
	targetCode := p.String("target_code")
	reason := p.String("hold_reason")

	target, ok := holdTargets[targetType]
	if !ok {
		return nil, errors.InvalidInput("target_type", "허용되지 않는 값입니다: "+targetType)
	}
	if _, err := requireRow(ctx, gw, target.resource, targetCode, target.sql, env.TenantID, targetCode); err != nil {
		return nil, err
	}

	holdID, err := gw.InsertReturning(ctx, `
		INSERT INTO mes_quality_hold (tenant_id, hold_type, target_code, reason, hold_status, hold_date)
		VALUES ($1, $2, $3, $4, 'hold', $5)
		RETURNING id
	`, env.TenantID, targetType, targetCode, reason, env.Now)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":     fmt.Sprintf("%s %s 품질 보류 등록", targetType, targetCode),
		"hold_id":     holdID,
		"target_type": targetType,
		"target_code": targetCode,
		"hold_reason": reason,
		"hold_date":   env.Now.Format(timestampLayout),
	}, nil
}
