package markdown_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/models"
)

// ---------------------------------------------------------------------------
// RenderItem
// ---------------------------------------------------------------------------

func TestRenderItem_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		item models.CatalogItem
		want string
	}{
		{
			name: "name and price only",
			item: models.CatalogItem{ID: 1, ItemName: "Lamp", Price: 19.5},
			want: "### Lamp (#1)\n**Price:** $19.50",
		},
		{
			name: "with seller",
			item: models.CatalogItem{ID: 1, ItemName: "Lamp", Seller: &models.Seller{Username: "ann"}},
			want: "### Lamp (#1)\n**Price:** $0.00\n**Seller:** ann",
		},
		{
			name: "with image and description",
			item: models.CatalogItem{ID: 2, ItemName: "Chair", Price: 5, ImageName: "c.png", ItemDescription: "oak"},
			want: "### Chair (#2)\n**Price:** $5.00\n**Image:** c.png\n\noak",
		},
		{
			name: "missing name",
			item: models.CatalogItem{ID: 3},
			want: "### - (#3)\n**Price:** $0.00",
		},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(markdown.RenderItem(tc.item), qt.Equals, tc.want)
		})
	}
}

// ---------------------------------------------------------------------------
// RenderItems
// ---------------------------------------------------------------------------

func TestRenderItems(t *testing.T) {
	c := qt.New(t)

	c.Run("empty list shows placeholder", func(c *qt.C) {
		c.Assert(markdown.RenderItems(nil), qt.Equals, "_No items found._\n")
	})

	c.Run("rows follow input order and escape cells", func(c *qt.C) {
		got := markdown.RenderItems([]models.CatalogItem{
			{ID: 2, ItemName: "Blue Lamp", Price: 20, Seller: &models.Seller{Username: "ann"}},
			{ID: 1, ItemName: "a|b", ItemDescription: "two\nlines"},
		})
		lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
		c.Assert(lines, qt.HasLen, 4)
		c.Assert(lines[2], qt.Equals, "| 2 | Blue Lamp | $20.00 | ann | - |")
		c.Assert(lines[3], qt.Equals, `| 1 | a\|b | $0.00 | - | two lines |`)
	})
}

// ---------------------------------------------------------------------------
// RenderCart / RenderReceipt
// ---------------------------------------------------------------------------

func TestRenderCart(t *testing.T) {
	c := qt.New(t)

	c.Run("empty cart", func(c *qt.C) {
		c.Assert(markdown.RenderCart(nil), qt.Equals, "_Your cart is empty._\n")
	})

	c.Run("totals", func(c *qt.C) {
		got := markdown.RenderCart([]models.CartLine{
			{ItemID: 1, ItemName: "Lamp", Price: 2.5, Quantity: 2},
			{ItemID: 2, ItemName: "Chair", Price: 10, Quantity: 1},
		})
		c.Assert(got, qt.Contains, "| 1 | Lamp | 2 | $2.50 | $5.00 |")
		c.Assert(got, qt.Contains, "**Items:** 3")
		c.Assert(got, qt.Contains, "**Total:** $15.00")
	})
}

func TestRenderReceipt(t *testing.T) {
	c := qt.New(t)

	got := markdown.RenderReceipt(cart.Receipt{
		Lines: []models.CartLine{{ItemID: 1, ItemName: "Lamp", Price: 2.5, Quantity: 2}},
		Units: 2,
		Total: 5,
	})
	c.Assert(got, qt.Equals, "## Order confirmed\n\n- 2 × Lamp ($5.00)\n\n**Items:** 2\n**Total:** $5.00\n")
}

func TestRenderUser(t *testing.T) {
	c := qt.New(t)

	c.Assert(markdown.RenderUser(models.User{ID: "3", Username: "ann", Email: "a@x"}), qt.Equals,
		"### ann (#3)\n**Email:** a@x")
	c.Assert(markdown.RenderUser(models.User{}), qt.Equals, "### -\n**Email:** -")
}
