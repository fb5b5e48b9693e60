package pricing

import (
	"testing"

	"pricing-portal/internal/models"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestApplyToScalarZeroAdjustmentIsIdentity(t *testing.T) {
	adj := models.ResolvedAdjustment{}

	for _, price := range []float64{0, 1, 99.99, 100, 48000, 0.01} {
		assert.Equal(t, price, ApplyToScalar(price, adj))
	}
}

func TestApplyToScalarPercentage(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		total    float64
		expected float64
	}{
		{"ten percent up", 100, 10, 110},
		{"combined global and user", 200, 5, 210},
		{"negative adjustment", 100, -15, 85},
		{"fractional result rounds to cents", 99.99, 10, 109.99},
		{"zero price stays zero", 0, 25, 0},
		{"hundred percent doubles", 50, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := models.ResolvedAdjustment{Total: tt.total}
			assert.Equal(t, tt.expected, ApplyToScalar(tt.price, adj))
		})
	}
}

func TestApplyToScalarExactAmount(t *testing.T) {
	adj := models.ResolvedAdjustment{Exact: fptr(50), Total: 50}

	// The exact amount replaces the price regardless of its value.
	assert.Equal(t, 50.0, ApplyToScalar(999, adj))
	assert.Equal(t, 50.0, ApplyToScalar(0, adj))
	assert.Equal(t, 50.0, ApplyToScalar(50, adj))
}

func TestApplyToScalarClamping(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		adj      models.ResolvedAdjustment
		expected float64
	}{
		{"clamped to max", 90, models.ResolvedAdjustment{Total: 20, MinPrice: fptr(0), MaxPrice: fptr(100)}, 100},
		{"clamped to min", 10, models.ResolvedAdjustment{Total: -80, MinPrice: fptr(5)}, 5},
		{"within bounds untouched", 50, models.ResolvedAdjustment{Total: 10, MinPrice: fptr(0), MaxPrice: fptr(100)}, 55},
		{"exact amount clamped too", 999, models.ResolvedAdjustment{Exact: fptr(500), Total: 500, MaxPrice: fptr(100)}, 100},
		{"unset max imposes no ceiling", 100, models.ResolvedAdjustment{Total: 900, MinPrice: fptr(0)}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyToScalar(tt.price, tt.adj))
		})
	}
}

func TestClampingIsIdempotent(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 20, MinPrice: fptr(0), MaxPrice: fptr(100)}
	once := ApplyToScalar(90, adj)

	// Re-applying a zero adjustment with the same bounds must not move the
	// price again.
	again := ApplyToScalar(once, models.ResolvedAdjustment{MinPrice: fptr(0), MaxPrice: fptr(100)})
	assert.Equal(t, once, again)
	assert.Equal(t, 100.0, again)
}

func TestApplyToDollarString(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		adj      models.ResolvedAdjustment
		expected string
	}{
		{"prefix preserved", "$3500", models.ResolvedAdjustment{Total: 10}, "$3850.00"},
		{"zero total normalizes formatting", "$3500", models.ResolvedAdjustment{}, "$3500.00"},
		{"thousands separators parsed", "$1,500", models.ResolvedAdjustment{Total: 10}, "$1650.00"},
		{"no prefix stays bare", "250", models.ResolvedAdjustment{Total: 20}, "300.00"},
		{"exact amount replaces", "$999", models.ResolvedAdjustment{Exact: fptr(50), Total: 50}, "$50.00"},
		{"unparseable passes through", "call for pricing", models.ResolvedAdjustment{Total: 10}, "call for pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyToDollarString(tt.price, tt.adj))
		})
	}
}

func TestApplyToArrayPreservesLengthAndOrder(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 10}
	prices := []any{float64(850), float64(1200), float64(400)}

	out := ApplyToArray(prices, adj)

	assert.Len(t, out, len(prices))
	assert.Equal(t, []any{935.0, 1320.0, 440.0}, out)
}

func TestApplyToArrayNonNumericPassThrough(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 50}
	prices := []any{float64(100), nil, "TBD", true, float64(200)}

	out := ApplyToArray(prices, adj)

	assert.Equal(t, []any{150.0, nil, "TBD", true, 300.0}, out)
}

func TestApplyToNestedCollection(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 10}
	items := []any{
		map[string]any{"name": "Standard Mention", "articles": float64(1), "price": float64(1200)},
		map[string]any{"name": "Series Bundle", "articles": float64(3), "price": float64(5400)},
	}

	out := ApplyToNestedCollection(items, "price", adj)

	assert.Len(t, out, 2)
	first := out[0].(map[string]any)
	assert.Equal(t, 1320.0, first["price"])
	assert.Equal(t, "Standard Mention", first["name"])
	assert.Equal(t, float64(1), first["articles"])

	second := out[1].(map[string]any)
	assert.Equal(t, 5940.0, second["price"])

	// The input must not be mutated.
	assert.Equal(t, float64(1200), items[0].(map[string]any)["price"])
}

func TestApplyToNestedCollectionArrayPrices(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 100}
	items := []any{
		map[string]any{"name": "combo", "price": []any{float64(10), float64(20)}},
	}

	out := ApplyToNestedCollection(items, "price", adj)
	assert.Equal(t, []any{20.0, 40.0}, out[0].(map[string]any)["price"])
}

func TestApplyToNestedCollectionNonObjectItems(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 10}
	items := []any{"not an object", map[string]any{"price": float64(100)}}

	out := ApplyToNestedCollection(items, "price", adj)
	assert.Equal(t, "not an object", out[0])
	assert.Equal(t, 110.0, out[1].(map[string]any)["price"])
}

func TestApplyToValueNilPassesThrough(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 10}
	assert.Nil(t, ApplyToValue(nil, adj))
}

func TestApplyToRows(t *testing.T) {
	adj := models.ResolvedAdjustment{Total: 10}

	t.Run("scalar shape", func(t *testing.T) {
		spec, _ := models.TableFor(models.TablePublications)
		rows := []map[string]any{
			{"name": "Forbes", "price": float64(4800)},
			{"name": "No price yet", "price": nil},
		}

		out := ApplyToRows(rows, spec, adj)

		assert.Equal(t, 5280.0, out[0]["price"])
		assert.Nil(t, out[1]["price"])
		// Original rows untouched so a cached listing is never adjusted twice.
		assert.Equal(t, float64(4800), rows[0]["price"])
	})

	t.Run("dollar string shape", func(t *testing.T) {
		spec, _ := models.TableFor(models.TableDigitalTV)
		rows := []map[string]any{{"network": "CBS Local", "price": "$3500"}}

		out := ApplyToRows(rows, spec, adj)
		assert.Equal(t, "$3850.00", out[0]["price"])
	})

	t.Run("array shape", func(t *testing.T) {
		spec, _ := models.TableFor(models.TableSocialPosts)
		rows := []map[string]any{{"account": "@fitfuel", "prices": []any{float64(1500), float64(1900)}}}

		out := ApplyToRows(rows, spec, adj)
		assert.Equal(t, []any{1650.0, 2090.0}, out[0]["prices"])
	})

	t.Run("nested shape", func(t *testing.T) {
		spec, _ := models.TableFor(models.TablePrints)
		rows := []map[string]any{{
			"category": "Fashion",
			"magazines": []any{
				map[string]any{"name": "Vogue Regional", "circulation": float64(250000), "price": float64(8500)},
			},
		}}

		out := ApplyToRows(rows, spec, adj)
		magazines := out[0]["magazines"].([]any)
		first := magazines[0].(map[string]any)
		assert.Equal(t, 9350.0, first["price"])
		assert.Equal(t, float64(250000), first["circulation"])
	})
}
