package repository

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Row is one result row keyed by column label.
type Row map[string]any

// IsNull reports whether the column is missing or NULL.
func (r Row) IsNull(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	if n, ok := v.(pgtype.Numeric); ok {
		return !n.Valid
	}
	return false
}

// String returns the column as text.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Float64 returns the column as a float, 0 when NULL or not numeric.
func (r Row) Float64(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return 0
		}
		return f.Float64
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Int64 returns the column as an integer, rounding numeric values.
func (r Row) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	default:
		return int64(math.Round(r.Float64(key)))
	}
}

// Decimal returns the column as an exact decimal.
func (r Row) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case pgtype.Numeric:
		if !v.Valid {
			return decimal.Zero
		}
		val, err := v.Value()
		if err != nil {
			return decimal.Zero
		}
		s, ok := val.(string)
		if !ok {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case int64, int32, int16, int:
		return decimal.NewFromInt(r.Int64(key))
	case float64, float32:
		return decimal.NewFromFloat(r.Float64(key))
	default:
		return decimal.Zero
	}
}

// Time returns the column as a time, zero when NULL.
func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case pgtype.Date:
		return v.Time
	case pgtype.Timestamptz:
		return v.Time
	case pgtype.Timestamp:
		return v.Time
	default:
		return time.Time{}
	}
}
