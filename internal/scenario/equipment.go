package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

// Baseline OEE axes before degradation.
const (
	baseAvailability = 0.90
	basePerformance  = 0.95
	baseQuality      = 0.99
)

func equipmentHandlers() []Handler {
	return []Handler{
		{ID: "EQ001", Name: "설비 고장", Run: breakdown},
		{ID: "EQ002", Name: "OEE 저하", Run: oeeDegradation},
		{ID: "EQ003", Name: "예방 정비", Run: preventiveMaintenance},
	}
}

func breakdown(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	code := p.String("equipment_code")

	eq, err := requireRow(ctx, gw, "설비", code, `
		UPDATE mes_equipment
		SET status = 'breakdown'
		WHERE tenant_id = $1 AND equipment_code = $2
		RETURNING line_code
	`, env.TenantID, code)
	if err != nil {
		return nil, err
	}
	lineCode := eq.String("line_code")

	downtimeID, err := gw.InsertReturning(ctx, `
		INSERT INTO mes_downtime (
			tenant_id, equipment_code, line_code, downtime_start, downtime_type,
			failure_type, severity, estimated_repair_hours, status
		) VALUES ($1, $2, $3, $4, 'breakdown', $5, $6, $7, 'ongoing')
		RETURNING id
	`, env.TenantID, code, lineCode, env.Now, p.String("failure_type"), p.String("severity"), p.Float("estimated_repair_hours"))
	if err != nil {
		return nil, err
	}

	paused, err := gw.Execute(ctx, `
		UPDATE mes_production_order
		SET status = 'paused'
		WHERE tenant_id = $1 AND line_code = $2 AND status = 'started'
	`, env.TenantID, lineCode)
	if err != nil {
		return nil, err
	}

	env.Log.Debug().
		Str("equipment_code", code).
		Str("line_code", lineCode).
		Int64("paused_orders", paused).
		Msg("Equipment breakdown recorded")

	return map[string]any{
		"message":                fmt.Sprintf("%s 설비 고장 발생", code),
		"equipment_code":         code,
		"line_code":              lineCode,
		"downtime_id":            downtimeID,
		"failure_type":           p.String("failure_type"),
		"severity":               p.String("severity"),
		"estimated_repair_hours": p.Float("estimated_repair_hours"),
		"paused_orders":          paused,
		"downtime_start":         env.Now.Format(timestampLayout),
	}, nil
}

// degradedAxes returns the three OEE axes after scaling the selected ones by
// (1 - percent/100).
func degradedAxes(selected []string, percent float64) (availability, performance, quality float64) {
	availability, performance, quality = baseAvailability, basePerformance, baseQuality
	factor := 1 - percent/100
	for _, axis := range selected {
		switch axis {
		case "availability":
			availability = baseAvailability * factor
		case "performance":
			performance = basePerformance * factor
		case "quality":
			quality = baseQuality * factor
		}
	}
	return availability, performance, quality
}

func oeeDegradation(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	code := p.String("equipment_code")
	days := p.Int("duration_days")
	percent := p.Float("degradation_percent")

	if _, err := requireRow(ctx, gw, "설비", code, `
		SELECT equipment_code FROM mes_equipment WHERE tenant_id = $1 AND equipment_code = $2
	`, env.TenantID, code); err != nil {
		return nil, err
	}

	a, pf, q := degradedAxes(p.Strings("degradation_type"), percent)
	oee := a * pf * q

	start := env.Now.Truncate(time.Hour)
	samples := days * 24
	rows := make([][]any, 0, samples)
	for h := 0; h < samples; h++ {
		rows = append(rows, []any{env.TenantID, code, start.Add(time.Duration(h) * time.Hour), a, pf, q, oee})
	}

	inserted, err := gw.ExecuteBatch(ctx, `
		INSERT INTO mes_equipment_status (
			tenant_id, equipment_code, record_time, availability, performance, quality, oee
		) VALUES :rows
		ON CONFLICT (equipment_code, record_time) DO NOTHING
	`, rows)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":             fmt.Sprintf("%s 설비 OEE %.1f%% 저하", code, percent),
		"equipment_code":      code,
		"degradation_type":    p.Strings("degradation_type"),
		"degradation_percent": percent,
		"samples_requested":   samples,
		"inserted_records":    inserted,
		"ignored_conflicts":   int64(samples) - inserted,
		"availability":        a,
		"performance":         pf,
		"quality":             q,
		"oee":                 oee,
		"period_start":        start.Format(timestampLayout),
		"period_end":          start.Add(time.Duration(samples-1) * time.Hour).Format(timestampLayout),
	}, nil
}

func preventiveMaintenance(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	code := p.String("equipment_code")
	hours := p.Float("duration_hours")

	if _, err := requireRow(ctx, gw, "설비", code, `
		UPDATE mes_equipment
		SET status = 'maintenance'
		WHERE tenant_id = $1 AND equipment_code = $2
		RETURNING equipment_code
	`, env.TenantID, code); err != nil {
		return nil, err
	}

	historyID, err := gw.InsertReturning(ctx, `
		INSERT INTO mes_maintenance_history (
			tenant_id, equipment_code, maintenance_type, start_time, planned_duration, status
		) VALUES ($1, $2, $3, $4, $5, 'in_progress')
		RETURNING id
	`, env.TenantID, code, p.String("maintenance_type"), env.Now, hours)
	if err != nil {
		return nil, err
	}

	expectedEnd := env.Now.Add(time.Duration(hours * float64(time.Hour)))

	return map[string]any{
		"message":          fmt.Sprintf("%s 설비 예방 정비 시작", code),
		"equipment_code":   code,
		"maintenance_id":   historyID,
		"maintenance_type": p.String("maintenance_type"),
		"duration_hours":   hours,
		"start_time":       env.Now.Format(timestampLayout),
		"expected_end":     expectedEnd.Format(timestampLayout),
	}, nil
}
