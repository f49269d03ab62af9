package scenario

import (
	"context"
	"math"
	"time"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// emptyResult is returned when a handler's working set is empty. It is a
// success, not an error.
func emptyResult(message string) map[string]any {
	return map[string]any{
		"message":          message,
		"affected_records": 0,
	}
}

// requireRow runs a single-row query and turns an empty result into a
// NOT_FOUND error naming resource and code.
func requireRow(ctx context.Context, gw repository.Gateway, resource, code, sql string, args ...any) (repository.Row, error) {
	row, err := gw.FetchOne(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errors.NotFound(resource, code)
	}
	return row, nil
}

// sampleSize returns floor(count * percent / 100).
func sampleSize(count int, percent float64) int {
	n := int(math.Floor(float64(count)*percent/100 + 1e-9))
	if n > count {
		return count
	}
	return n
}

// sample draws a uniform random subset of size sampleSize(len(items), percent).
func sample[T any](env *Env, items []T, percent float64) []T {
	n := sampleSize(len(items), percent)
	if n == 0 {
		return []T{}
	}
	picked := make([]T, 0, n)
	for _, i := range env.Rand.Perm(len(items))[:n] {
		picked = append(picked, items[i])
	}
	return picked
}

// activeEmployees returns the employee ids of active staff in a department.
func activeEmployees(ctx context.Context, gw repository.Gateway, env *Env, department string) ([]string, error) {
	rows, err := gw.FetchAll(ctx, `
		SELECT employee_id
		FROM erp_employee
		WHERE tenant_id = $1 AND department_code = $2 AND status = 'active'
		ORDER BY employee_id
	`, env.TenantID, department)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("employee_id"))
	}
	return ids, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
