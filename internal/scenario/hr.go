package scenario

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

const noEmployeesMessage = "해당 부서에 재직중인 직원이 없습니다"

func hrHandlers() []Handler {
	return []Handler{
		{ID: "HR001", Name: "대규모 결근", Run: massAbsence},
		{ID: "HR002", Name: "초과근무 요청", Run: overtimeRequest},
	}
}

func massAbsence(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	department := p.String("department_code")
	days := p.Int("duration_days")
	reason := p.String("absence_reason")

	employees, err := activeEmployees(ctx, gw, env, department)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return emptyResult(noEmployeesMessage), nil
	}

	absent := sample(env, employees, p.Float("absence_rate"))
	start := env.Today()

	rows := make([][]any, 0, len(absent)*days)
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, id := range absent {
			rows = append(rows, []any{env.TenantID, id, day, "absent", reason})
		}
	}

	n, err := gw.ExecuteBatch(ctx, `
		INSERT INTO erp_attendance (tenant_id, employee_id, work_date, status, remarks)
		VALUES :rows
		ON CONFLICT (tenant_id, employee_id, work_date)
		DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks
	`, rows)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":            fmt.Sprintf("%s 부서 %d명 결근 처리", department, len(absent)),
		"department_code":    department,
		"total_employees":    len(employees),
		"absent_employees":   len(absent),
		"employee_ids":       absent,
		"duration_days":      days,
		"attendance_records": n,
		"period_start":       formatDate(start),
		"period_end":         formatDate(start.AddDate(0, 0, days-1)),
	}, nil
}

func overtimeRequest(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error) {
	department := p.String("department_code")
	hours := p.Float("overtime_hours")
	date := p.Time("overtime_date")
	if date.IsZero() {
		date = env.Today()
	}

	employees, err := activeEmployees(ctx, gw, env, department)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return emptyResult(noEmployeesMessage), nil
	}

	chosen := sample(env, employees, p.Float("participation_rate"))

	rows := make([][]any, 0, len(chosen))
	for _, id := range chosen {
		rows = append(rows, []any{env.TenantID, id, date, "present", hours})
	}

	n, err := gw.ExecuteBatch(ctx, `
		INSERT INTO erp_attendance (tenant_id, employee_id, work_date, status, overtime_hours)
		VALUES :rows
		ON CONFLICT (tenant_id, employee_id, work_date)
		DO UPDATE SET overtime_hours = EXCLUDED.overtime_hours
	`, rows)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message":            fmt.Sprintf("%s 부서 %d명 초과근무 %.1f시간 배정", department, len(chosen), hours),
		"department_code":    department,
		"total_employees":    len(employees),
		"overtime_employees": len(chosen),
		"employee_ids":       chosen,
		"overtime_hours":     hours,
		"overtime_date":      formatDate(date),
		"attendance_records": n,
	}, nil
}
