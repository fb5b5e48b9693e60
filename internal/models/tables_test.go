package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableForKnownTables(t *testing.T) {
	spec, ok := TableFor(TableListicles)
	assert.True(t, ok)
	assert.Equal(t, ShapeNested, spec.Shape)
	assert.Equal(t, "bundles", spec.ItemsField)
	assert.Equal(t, "price", spec.PriceField)

	spec, ok = TableFor(TableSocialPosts)
	assert.True(t, ok)
	assert.Equal(t, ShapeArray, spec.Shape)
	assert.Equal(t, "prices", spec.PriceField)
}

func TestTableForUnknownTable(t *testing.T) {
	_, ok := TableFor("orders")
	assert.False(t, ok)
	assert.False(t, IsKnownTable("orders"))
}

func TestTableNamesCoversFixedSet(t *testing.T) {
	names := TableNames()
	assert.Len(t, names, 7)
	for _, name := range names {
		assert.True(t, IsKnownTable(name))
	}
}
