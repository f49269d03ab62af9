package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowNumericColumns(t *testing.T) {
	var qty pgtype.Numeric
	require.NoError(t, qty.Scan("12.345"))

	r := Row{"qty": qty, "price": nil, "target": int32(100), "text": "7.5"}

	assert.True(t, decimal.RequireFromString("12.345").Equal(r.Decimal("qty")))
	assert.InDelta(t, 12.345, r.Float64("qty"), 1e-9)
	assert.Equal(t, int64(12), r.Int64("qty"))
	assert.Equal(t, int64(100), r.Int64("target"))
	assert.InDelta(t, 7.5, r.Float64("text"), 1e-9)

	assert.True(t, r.IsNull("price"))
	assert.True(t, r.IsNull("missing"))
	assert.False(t, r.IsNull("qty"))
	assert.True(t, r.Decimal("price").IsZero())
}

func TestRowNullNumeric(t *testing.T) {
	r := Row{"selling_price": pgtype.Numeric{}}
	assert.True(t, r.IsNull("selling_price"))
	assert.Zero(t, r.Float64("selling_price"))
}

func TestRowTimeAndString(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	r := Row{
		"planned_end": pgtype.Date{Time: day, Valid: true},
		"created_at":  day,
		"code":        []byte("LINE001"),
		"id":          int64(42),
	}

	assert.Equal(t, day, r.Time("planned_end"))
	assert.Equal(t, day, r.Time("created_at"))
	assert.True(t, r.Time("missing").IsZero())
	assert.Equal(t, "LINE001", r.String("code"))
	assert.Equal(t, "42", r.String("id"))
	assert.Empty(t, r.String("missing"))
}
