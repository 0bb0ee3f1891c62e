// Package models defines the core data types shared by the session, cart,
// catalog and view layers.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ItemID identifies a catalog item. The zero value means "no id".
type ItemID int64

// String returns the decimal form used in REST paths.
func (id ItemID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseItemID parses a decimal item id as typed by a user.
func ParseItemID(s string) (ItemID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return ItemID(n), nil
}

// Seller is the owner of a catalog item as embedded by the item service.
type Seller struct {
	ID       json.Number `json:"id,omitempty"`
	Username string      `json:"username,omitempty"`
}

// CatalogItem is a sellable item record returned by the catalog service.
// Text fields may be empty and Seller may be nil.
type CatalogItem struct {
	ID              ItemID  `json:"id"`
	ItemName        string  `json:"itemName"`
	ItemDescription string  `json:"itemDescription"`
	Price           float64 `json:"price"`
	ImageName       string  `json:"imageName"`
	Seller          *Seller `json:"seller,omitempty"`
}

// SellerName returns the seller username or "" when no seller is attached.
func (i CatalogItem) SellerName() string {
	if i.Seller == nil {
		return ""
	}
	return i.Seller.Username
}

// CartLine is one distinct item in the cart with its aggregated quantity.
type CartLine struct {
	ItemID   ItemID  `json:"itemId"`
	ItemName string  `json:"itemName"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// LineTotal is Price multiplied by Quantity.
func (l CartLine) LineTotal() float64 { return l.Price * float64(l.Quantity) }

// User is the account record served by the users endpoint.
type User struct {
	ID       json.Number `json:"id,omitempty"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

// ---------------------------------------------------------------------------
// Forms
// ---------------------------------------------------------------------------

// Credentials is the sign-in form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"` // #nosec G117 -- sign-in payload field
}

// Validate reports missing required fields.
func (c Credentials) Validate() error {
	return required(map[string]string{
		"username": c.Username,
		"password": c.Password,
	}, "username", "password")
}

// Registration is the sign-up form.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"` // #nosec G117 -- sign-up payload field
	Email    string `json:"email"`
}

// Validate reports missing required fields.
func (r Registration) Validate() error {
	return required(map[string]string{
		"username": r.Username,
		"password": r.Password,
		"email":    r.Email,
	}, "username", "password", "email")
}

// AccountUpdate is the settings form sent on PUT /users/{id}.
type AccountUpdate struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"` // #nosec G117 -- settings payload field
	Email    string `json:"email"`
}

// Validate reports missing required fields. Password may be left empty.
func (a AccountUpdate) Validate() error {
	return required(map[string]string{
		"username": a.Username,
		"email":    a.Email,
	}, "username", "email")
}

// SellerRef points a post at its owner.
type SellerRef struct {
	ID string `json:"id"`
}

// ItemPost is the create/update payload for a profile post.
type ItemPost struct {
	ItemName        string    `json:"itemName"`
	ItemDescription string    `json:"itemDescription"`
	Price           float64   `json:"price"`
	ImageName       string    `json:"imageName"`
	Seller          SellerRef `json:"seller"`
}

// Validate reports missing required fields and a negative price.
func (p ItemPost) Validate() error {
	if err := required(map[string]string{"itemName": p.ItemName}, "itemName"); err != nil {
		return err
	}
	if p.Price < 0 {
		return &ValidationError{Fields: []string{"price"}, Reason: "must not be negative"}
	}
	return nil
}

// Apply returns item with the editable fields replaced by the post's values.
func (p ItemPost) Apply(item CatalogItem) CatalogItem {
	item.ItemName = p.ItemName
	item.ItemDescription = p.ItemDescription
	item.Price = p.Price
	item.ImageName = p.ImageName
	return item
}

// ---------------------------------------------------------------------------
// Validation errors
// ---------------------------------------------------------------------------

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "required"
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Fields, ", "), reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// required checks fields in order so messages are stable.
func required(values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}
