package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBuildCategoryTree(t *testing.T) {
	categories := []Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Phones", ParentID: intPtr(1)},
		{ID: 3, Name: "Laptops", ParentID: intPtr(1)},
		{ID: 4, Name: "Smartphones", ParentID: intPtr(2)},
		{ID: 5, Name: "Books"},
		{ID: 6, Name: "Orphan", ParentID: intPtr(99)},
	}

	roots := BuildCategoryTree(categories)

	require.Len(t, roots, 3)
	assert.Equal(t, "Electronics", roots[0].Name)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Phones", roots[0].Children[0].Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "Smartphones", roots[0].Children[0].Children[0].Name)
	assert.Equal(t, "Books", roots[1].Name)
	assert.Empty(t, roots[1].Children)
	assert.Equal(t, "Orphan", roots[2].Name)
}

func TestBuildCategoryTree_Empty(t *testing.T) {
	roots := BuildCategoryTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestCategoryNode_JSON(t *testing.T) {
	roots := BuildCategoryTree([]Category{{ID: 1, Name: "Root"}})

	data, err := json.Marshal(roots)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Root","children":[]}]`, string(data))
}

func TestProduct_Summary(t *testing.T) {
	brand := "Acme"
	p := Product{ID: 7, Article: "12345", Name: "Kettle", Brand: &brand, ImageURL: "http://img"}

	assert.Equal(t, ProductSummary{ID: 7, Article: "12345", Name: "Kettle"}, p.Summary())
}

func TestSplitObservations(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []PriceHistory{
		{ID: 1, ProductID: 1, Price: decimal.RequireFromString("100.50"), CreatedAt: now},
		{ID: 2, ProductID: 1, Price: decimal.RequireFromString("101.25"), CreatedAt: now.AddDate(0, 0, 1)},
	}

	prices, dates := SplitObservations(history)

	assert.Equal(t, []float64{100.5, 101.25}, prices)
	assert.Equal(t, []time.Time{now, now.AddDate(0, 0, 1)}, dates)
}
