package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

func TestDefectSpike(t *testing.T) {
	gw := &fakeGateway{}
	gw.on("SELECT id, product_code, target_qty").returns(repository.Row{
		"id": int64(1), "product_code": "PROD0001",
		"target_qty": int64(100), "good_qty": int64(100), "defect_qty": int64(0),
	})
	gw.on("UPDATE mes_production_order").affects(1)

	res, err := run(t, gw, "QS001", map[string]any{
		"line_code":     "LINE001",
		"defect_rate":   15.0,
		"duration_type": "instant",
		"defect_types":  []any{"solder", "missing"},
	})
	require.NoError(t, err)

	updates := gw.callsMatching("UPDATE mes_production_order")
	require.Len(t, updates, 1)
	assert.Equal(t, int64(15), updates[0].args[0])
	assert.Contains(t, updates[0].sql, "good_qty = GREATEST(0, good_qty - $1)")

	batches := gw.callsMatching("INSERT INTO mes_defect")
	require.Len(t, batches, 1)
	require.Len(t, batches[0].rows, 15)
	for _, row := range batches[0].rows {
		assert.Equal(t, testTenant, row[0])
		assert.Equal(t, int64(1), row[1])

		at := row[2].(time.Time)
		assert.False(t, at.Before(testNow))
		assert.False(t, at.After(testNow.Add(60*time.Minute)))

		assert.Contains(t, []string{"DEF-SOL", "DEF-MIS"}, row[3])
		assert.Contains(t, []string{"납땜불량", "부품누락"}, row[4])
		assert.Equal(t, "LINE001", row[5])
		assert.Equal(t, "PROD0001", row[6])
		assert.Equal(t, 1, row[7])
	}

	assert.Equal(t, 1, res["affected_orders"])
	assert.Equal(t, int64(15), res["defect_records_created"])
	assert.Equal(t, res["window_start"], res["window_end"])
}

func TestDefectSpikeWindow(t *testing.T) {
	gw := &fakeGateway{}
	gw.on("SELECT id, product_code, target_qty").returns(repository.Row{
		"id": int64(3), "product_code": "P", "target_qty": int64(10), "good_qty": int64(5), "defect_qty": int64(0),
	})

	res, err := run(t, gw, "QS001", map[string]any{
		"line_code":      "LINE001",
		"defect_rate":    10.0,
		"duration_type":  "hours",
		"duration_value": 4.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15 10:37:12", res["window_start"])
	assert.Equal(t, "2024-01-15 14:37:12", res["window_end"])
}

func TestDefectSpikeNoOrders(t *testing.T) {
	gw := &fakeGateway{}

	res, err := run(t, gw, "QS001", map[string]any{"line_code": "LINE009"})
	require.NoError(t, err)

	assert.Equal(t, "해당 라인에 진행중인 작업이 없습니다", res["message"])
	assert.Equal(t, 0, res["affected_records"])
	assert.Empty(t, gw.callsMatching("UPDATE"))
	assert.Empty(t, gw.callsMatching("INSERT"))
}

func TestDefectIncrement(t *testing.T) {
	assert.Equal(t, int64(15), defectIncrement(100, 0, 15))
	assert.Equal(t, int64(1), defectIncrement(10, 0, 1))
	assert.Equal(t, int64(0), defectIncrement(100, 0, 0))
	assert.Equal(t, int64(5), defectIncrement(100, 95, 15))
	assert.Equal(t, int64(0), defectIncrement(100, 100, 15))
}

func TestDefectIncrementKeepsQuantitiesConsistent(t *testing.T) {
	for target := int64(0); target <= 40; target++ {
		for defect := int64(0); defect <= target; defect++ {
			for good := int64(0); good+defect <= target; good++ {
				for _, rate := range []float64{0, 0.5, 15, 50, 100} {
					d := defectIncrement(target, defect, rate)
					newGood := good - d
					if newGood < 0 {
						newGood = 0
					}
					newDefect := defect + d

					require.GreaterOrEqual(t, d, int64(0))
					require.LessOrEqual(t, newGood+newDefect, target,
						"target=%d good=%d defect=%d rate=%v", target, good, defect, rate)
				}
			}
		}
	}
}

func TestDefectCode(t *testing.T) {
	assert.Equal(t, "DEF-SOL", defectCode("solder"))
	assert.Equal(t, "DEF-POL", defectCode("polarity"))
	assert.Equal(t, "DEF-AB", defectCode("ab"))
}

func TestQualityHold(t *testing.T) {
	gw := &fakeGateway{}
	gw.on("FROM erp_product").returns(repository.Row{"product_code": "PROD0001"})

	res, err := run(t, gw, "QS002", map[string]any{
		"target_type": "product",
		"target_code": "PROD0001",
		"hold_reason": "lot contamination",
	})
	require.NoError(t, err)

	inserts := gw.callsMatching("INSERT INTO mes_quality_hold")
	require.Len(t, inserts, 1)
	assert.Contains(t, inserts[0].sql, "'hold'")
	assert.Equal(t, []any{testTenant, "product", "PROD0001", "lot contamination", testNow}, inserts[0].args)
	assert.Equal(t, int64(1), res["hold_id"])
}

func TestQualityHoldUnknownTarget(t *testing.T) {
	gw := &fakeGateway{}

	_, err := run(t, gw, "QS002", map[string]any{
		"target_type": "line",
		"target_code": "LINE404",
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
	assert.Empty(t, gw.callsMatching("INSERT"))
}
