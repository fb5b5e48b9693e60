package models

// PriceShape tags how a table's price field is laid out. Transformation is
// dispatched on the declared shape, never on runtime type sniffing.
type PriceShape string

const (
	// ShapeScalar is a plain numeric dollar amount.
	ShapeScalar PriceShape = "scalar"
	// ShapeDollarString is a numeric amount formatted with a "$" prefix.
	ShapeDollarString PriceShape = "dollar_string"
	// ShapeArray is a list of per-unit prices (one per platform), adjusted
	// element-wise with order and length preserved.
	ShapeArray PriceShape = "array"
	// ShapeNested is a collection of named sub-items each carrying its own
	// price field.
	ShapeNested PriceShape = "nested"
)

// Inventory table names
const (
	TablePublications = "publications"
	TableSocialPosts  = "social_posts"
	TableDigitalTV    = "digital_tv"
	TableBestSellers  = "best_sellers"
	TableListicles    = "listicles"
	TablePrints       = "prints"
	TableBroadcastTV  = "broadcast_tv"
)

// TableSpec declares one inventory table: its price shape, which field holds
// the price, and for nested shapes which field holds the sub-items.
type TableSpec struct {
	Name       string
	Shape      PriceShape
	PriceField string
	ItemsField string
	OrderBy    string
}

var tableSpecs = map[string]TableSpec{
	TablePublications: {Name: TablePublications, Shape: ShapeScalar, PriceField: "price", OrderBy: "name"},
	TableSocialPosts:  {Name: TableSocialPosts, Shape: ShapeArray, PriceField: "prices", OrderBy: "account"},
	TableDigitalTV:    {Name: TableDigitalTV, Shape: ShapeDollarString, PriceField: "price", OrderBy: "network"},
	TableBestSellers:  {Name: TableBestSellers, Shape: ShapeScalar, PriceField: "price", OrderBy: "list"},
	TableListicles:    {Name: TableListicles, Shape: ShapeNested, PriceField: "price", ItemsField: "bundles", OrderBy: "outlet"},
	TablePrints:       {Name: TablePrints, Shape: ShapeNested, PriceField: "price", ItemsField: "magazines", OrderBy: "category"},
	TableBroadcastTV:  {Name: TableBroadcastTV, Shape: ShapeDollarString, PriceField: "price", OrderBy: "station"},
}

// TableFor returns the spec for a table name, reporting whether the name is
// one of the fixed inventory tables.
func TableFor(name string) (TableSpec, bool) {
	spec, ok := tableSpecs[name]
	return spec, ok
}

// IsKnownTable reports whether name is one of the fixed inventory tables.
func IsKnownTable(name string) bool {
	_, ok := tableSpecs[name]
	return ok
}

// TableNames returns the fixed inventory table set.
func TableNames() []string {
	names := make([]string, 0, len(tableSpecs))
	for name := range tableSpecs {
		names = append(names, name)
	}
	return names
}
