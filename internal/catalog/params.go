package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
)

// Params holds validated parameter values keyed by parameter key. Values are
// normalised: string for code/text/enum, []string for multiple enum, float64
// for percent/duration, int for integer, bool for boolean, time.Time for date.
type Params map[string]any

// Has reports whether key was supplied or defaulted.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Params) Int(key string) int {
	i, _ := p[key].(int)
	return i
}

func (p Params) Float(key string) float64 {
	f, _ := p[key].(float64)
	return f
}

func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

func (p Params) Strings(key string) []string {
	s, _ := p[key].([]string)
	return s
}

func (p Params) Time(key string) time.Time {
	t, _ := p[key].(time.Time)
	return t
}

// Validate checks raw against the parameter schema and returns normalised
// values with defaults applied. now anchors date defaults such as "today".
// Keys not in the schema are ignored.
func (s *Scenario) Validate(raw map[string]any, now time.Time) (Params, error) {
	out := make(Params, len(s.Parameters))
	for _, param := range s.Parameters {
		v, present := raw[param.Key]
		if !present || isBlank(v) {
			if param.Default == nil {
				if param.Required {
					return nil, errors.InvalidInput(param.Key, "필수 파라미터입니다")
				}
				continue
			}
			v = param.Default
		}

		val, err := param.coerce(v, now)
		if err != nil {
			return nil, errors.InvalidInput(param.Key, err.Error())
		}
		out[param.Key] = val
	}
	return out, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func (p Parameter) coerce(v any, now time.Time) (any, error) {
	switch p.Type {
	case TypeCode, TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("문자열이어야 합니다")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("필수 파라미터입니다")
		}
		return s, nil

	case TypePercent:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f < 0 || f > 100 {
			return nil, fmt.Errorf("0에서 100 사이여야 합니다")
		}
		return f, p.checkBounds(f)

	case TypeDuration:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("0 이상이어야 합니다")
		}
		return f, p.checkBounds(f)

	case TypeInteger:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("정수여야 합니다")
		}
		if math.Abs(f) > math.MaxInt32 {
			return nil, fmt.Errorf("허용 범위를 벗어났습니다")
		}
		n := int(f)
		return n, p.checkBounds(float64(n))

	case TypeBoolean:
		return toBool(v)

	case TypeDate:
		return toDate(v, now)

	case TypeEnum:
		if p.Multiple {
			return p.coerceMulti(v)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("문자열이어야 합니다")
		}
		s = strings.TrimSpace(s)
		if !p.allows(s) {
			return nil, fmt.Errorf("허용되지 않는 값입니다: %s", s)
		}
		return s, nil
	}
	return nil, fmt.Errorf("알 수 없는 파라미터 유형입니다: %s", p.Type)
}

func (p Parameter) coerceMulti(v any) ([]string, error) {
	var items []string
	switch t := v.(type) {
	case string:
		items = strings.Split(t, ",")
	case []string:
		items = t
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("문자열 목록이어야 합니다")
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("문자열 목록이어야 합니다")
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		if !p.allows(item) {
			return nil, fmt.Errorf("허용되지 않는 값입니다: %s", item)
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("하나 이상 선택해야 합니다")
	}
	return out, nil
}

func (p Parameter) allows(value string) bool {
	for _, o := range p.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (p Parameter) checkBounds(f float64) error {
	if p.Min != nil {
		if p.ExclusiveMin && f <= *p.Min {
			return fmt.Errorf("%s보다 커야 합니다", formatNumber(*p.Min))
		}
		if f < *p.Min {
			return fmt.Errorf("%s 이상이어야 합니다", formatNumber(*p.Min))
		}
	}
	if p.Max != nil && f > *p.Max {
		return fmt.Errorf("%s 이하여야 합니다", formatNumber(*p.Max))
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toFloat accepts JSON numbers and numeric strings. NaN and infinities are
// rejected since every bound check passes them.
func toFloat(v any) (float64, error) {
	f, err := rawFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("숫자여야 합니다")
	}
	return f, nil
}

func rawFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("숫자여야 합니다")
		}
		return f, nil
	}
	return 0, fmt.Errorf("숫자여야 합니다")
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("true 또는 false여야 합니다")
		}
		return b, nil
	}
	return false, fmt.Errorf("true 또는 false여야 합니다")
}

func toDate(v any, now time.Time) (time.Time, error) {
	loc := now.Location()
	switch t := v.(type) {
	case time.Time:
		return truncateDay(t.In(loc)), nil
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "today") {
			return truncateDay(now), nil
		}
		if d, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			return d, nil
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return truncateDay(ts.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
