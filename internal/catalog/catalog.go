// Package catalog derives the displayed item list from the loaded catalog and
// the free-text search query.
package catalog

import (
	"strings"

	"github.com/go-ports/tradeshop/internal/models"
)

// FilterItems returns the items whose name, description or seller username
// contains query, ignoring case. An empty query keeps every item. The result
// is a new slice in input order; items is not modified.
func FilterItems(items []models.CatalogItem, query string) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(items))
	if query == "" {
		return append(out, items...)
	}
	q := strings.ToLower(query)
	for _, it := range items {
		if Matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether item matches an already lower-cased query.
func Matches(item models.CatalogItem, lowerQuery string) bool {
	for _, field := range searchable(item) {
		if field != "" && strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

// Find returns the item with id.
func Find(items []models.CatalogItem, id models.ItemID) (models.CatalogItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return models.CatalogItem{}, false
}

func searchable(item models.CatalogItem) [3]string {
	return [3]string{item.ItemName, item.ItemDescription, item.SellerName()}
}
