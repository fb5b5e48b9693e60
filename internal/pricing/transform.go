package pricing

import (
	"math"
	"strconv"
	"strings"

	"pricing-portal/internal/models"
)

// ApplyToScalar adjusts one numeric price. An exact-amount adjustment
// replaces the price outright; otherwise the price scales by
// (1 + total/100). The result is clamped to the adjustment's bounds and
// rounded to cents. A price of exactly 0 is a valid input.
func ApplyToScalar(price float64, adj models.ResolvedAdjustment) float64 {
	out := price
	if adj.Exact != nil {
		out = *adj.Exact
	} else if adj.Total != 0 {
		out = price * (1 + adj.Total/100)
	}

	out = clamp(out, adj.MinPrice, adj.MaxPrice)
	return round2(out)
}

// ApplyToDollarString adjusts a price formatted as a dollar-prefixed string
// such as "$1,500". The amount is parsed, adjusted as a scalar, and
// re-emitted with the same prefix convention at two decimal places.
// Unparseable strings pass through unchanged.
func ApplyToDollarString(price string, adj models.ResolvedAdjustment) string {
	trimmed := strings.TrimSpace(price)
	raw := strings.TrimPrefix(trimmed, "$")
	raw = strings.ReplaceAll(raw, ",", "")

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return price
	}

	out := ApplyToScalar(amount, adj)
	formatted := strconv.FormatFloat(out, 'f', 2, 64)
	if strings.HasPrefix(trimmed, "$") {
		return "$" + formatted
	}
	return formatted
}

// ApplyToArray adjusts a list of per-unit prices element-wise, preserving
// order and length. Non-numeric elements pass through unchanged.
func ApplyToArray(prices []any, adj models.ResolvedAdjustment) []any {
	if prices == nil {
		return nil
	}

	out := make([]any, len(prices))
	for i, price := range prices {
		out[i] = ApplyToValue(price, adj)
	}
	return out
}

// ApplyToNestedCollection adjusts the named price field of every sub-item,
// copying all other fields unchanged and preserving collection order and
// length. Items that are not objects pass through untouched.
func ApplyToNestedCollection(items []any, priceField string, adj models.ResolvedAdjustment) []any {
	if items == nil {
		return nil
	}

	out := make([]any, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}

		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		if price, present := copied[priceField]; present {
			if arr, isArr := price.([]any); isArr {
				copied[priceField] = ApplyToArray(arr, adj)
			} else {
				copied[priceField] = ApplyToValue(price, adj)
			}
		}
		out[i] = copied
	}
	return out
}

// ApplyToValue adjusts a single price of unknown concrete type as decoded
// from JSON or the record store. Missing (nil) and non-numeric values pass
// through unchanged; dollar-prefixed strings keep their prefix.
func ApplyToValue(v any, adj models.ResolvedAdjustment) any {
	switch price := v.(type) {
	case float64:
		return ApplyToScalar(price, adj)
	case int64:
		return ApplyToScalar(float64(price), adj)
	case int:
		return ApplyToScalar(float64(price), adj)
	case string:
		return ApplyToDollarString(price, adj)
	default:
		return v
	}
}

// ApplyToRows adjusts every row of one table according to the table's
// declared price shape. Rows are copied, never mutated in place, so a cached
// unadjusted listing is applied exactly once per request.
func ApplyToRows(rows []map[string]any, spec models.TableSpec, adj models.ResolvedAdjustment) []map[string]any {
	if rows == nil {
		return nil
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		copied := make(map[string]any, len(row))
		for k, v := range row {
			copied[k] = v
		}

		switch spec.Shape {
		case models.ShapeScalar, models.ShapeDollarString:
			if price, present := copied[spec.PriceField]; present && price != nil {
				copied[spec.PriceField] = ApplyToValue(price, adj)
			}
		case models.ShapeArray:
			if arr, ok := copied[spec.PriceField].([]any); ok {
				copied[spec.PriceField] = ApplyToArray(arr, adj)
			}
		case models.ShapeNested:
			if items, ok := copied[spec.ItemsField].([]any); ok {
				copied[spec.ItemsField] = ApplyToNestedCollection(items, spec.PriceField, adj)
			}
		}

		out[i] = copied
	}
	return out
}

func clamp(v float64, min, max *float64) float64 {
	if max != nil && v > *max {
		v = *max
	}
	if min != nil && v < *min {
		v = *min
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
