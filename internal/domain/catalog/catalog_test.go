package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-catalog/internal/domain/validation"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestCategoryValidate(t *testing.T) {
	c := Category{Name: "Beverages", Description: "Drinks"}
	assert.NoError(t, c.Validate())

	c.Name = ""
	assert.Contains(t, fields(t, c.Validate()), "name")
}

func TestProductValidate(t *testing.T) {
	valid := Product{
		Name:       "Cold Brew",
		SKU:        "BEV-001",
		CategoryID: 1,
		Price:      decimal.RequireFromString("4.50"),
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Product)
		field  string
	}{
		{"missing name", func(p *Product) { p.Name = "" }, "name"},
		{"missing sku", func(p *Product) { p.SKU = "" }, "sku"},
		{"missing category", func(p *Product) { p.CategoryID = 0 }, "category"},
		{"negative price", func(p *Product) { p.Price = decimal.NewFromInt(-1) }, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.Contains(t, fields(t, p.Validate()), tc.field)
		})
	}

	t.Run("zero price allowed", func(t *testing.T) {
		p := valid
		p.Price = decimal.Zero
		assert.NoError(t, p.Validate())
	})
}
