// Package markdown renders marketplace screens as Markdown for the shell and
// the MCP tools.
package markdown

import (
	"strconv"
	"strings"

	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/models"
)

// RenderItem produces a single ### heading block for an item card.
func RenderItem(item models.CatalogItem) string {
	var sb strings.Builder
	sb.WriteString("### ")
	sb.WriteString(orDash(item.ItemName))
	sb.WriteString(" (#")
	sb.WriteString(item.ID.String())
	sb.WriteString(")\n**Price:** ")
	sb.WriteString(Price(item.Price))
	if s := item.SellerName(); s != "" {
		sb.WriteString("\n**Seller:** ")
		sb.WriteString(s)
	}
	if item.ImageName != "" {
		sb.WriteString("\n**Image:** ")
		sb.WriteString(item.ImageName)
	}
	if item.ItemDescription != "" {
		sb.WriteString("\n\n")
		sb.WriteString(item.ItemDescription)
	}
	return sb.String()
}

// RenderItems produces a table of items, or a placeholder when there are none.
func RenderItems(items []models.CatalogItem) string {
	if len(items) == 0 {
		return "_No items found._\n"
	}

	var sb strings.Builder
	sb.WriteString("| ID | Item | Price | Seller | Description |\n")
	sb.WriteString("|---:|------|------:|--------|-------------|\n")
	for _, it := range items {
		row(&sb,
			it.ID.String(),
			orDash(it.ItemName),
			Price(it.Price),
			orDash(it.SellerName()),
			orDash(it.ItemDescription),
		)
	}
	return sb.String()
}

// RenderCart produces the cart screen: one row per line plus totals.
func RenderCart(lines []models.CartLine) string {
	if len(lines) == 0 {
		return "_Your cart is empty._\n"
	}

	var sb strings.Builder
	units := 0
	var total float64
	sb.WriteString("| ID | Item | Qty | Price | Line total |\n")
	sb.WriteString("|---:|------|----:|------:|-----------:|\n")
	for _, l := range lines {
		units += l.Quantity
		total += l.LineTotal()
		row(&sb,
			l.ItemID.String(),
			orDash(l.ItemName),
			strconv.Itoa(l.Quantity),
			Price(l.Price),
			Price(l.LineTotal()),
		)
	}
	sb.WriteString("\n**Items:** ")
	sb.WriteString(strconv.Itoa(units))
	sb.WriteString("\n**Total:** ")
	sb.WriteString(Price(total))
	sb.WriteString("\n")
	return sb.String()
}

// RenderReceipt produces the checkout confirmation.
func RenderReceipt(r cart.Receipt) string {
	var sb strings.Builder
	sb.WriteString("## Order confirmed\n\n")
	for _, l := range r.Lines {
		sb.WriteString("- ")
		sb.WriteString(strconv.Itoa(l.Quantity))
		sb.WriteString(" × ")
		sb.WriteString(orDash(l.ItemName))
		sb.WriteString(" (")
		sb.WriteString(Price(l.LineTotal()))
		sb.WriteString(")\n")
	}
	sb.WriteString("\n**Items:** ")
	sb.WriteString(strconv.Itoa(r.Units))
	sb.WriteString("\n**Total:** ")
	sb.WriteString(Price(r.Total))
	sb.WriteString("\n")
	return sb.String()
}

// RenderUser produces the settings screen header.
func RenderUser(u models.User) string {
	var sb strings.Builder
	sb.WriteString("### ")
	sb.WriteString(orDash(u.Username))
	if id := u.ID.String(); id != "" {
		sb.WriteString(" (#")
		sb.WriteString(id)
		sb.WriteString(")")
	}
	sb.WriteString("\n**Email:** ")
	sb.WriteString(orDash(u.Email))
	return sb.String()
}

// Price formats an amount with two decimals and a dollar sign.
func Price(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// ---------------------------------------------------------------------------
// Table helpers
// ---------------------------------------------------------------------------

func row(sb *strings.Builder, cells ...string) {
	sb.WriteString("|")
	for _, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(escapeCell(cell))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

// escapeCell keeps a value on one table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
