// Package api is the client for the marketplace REST services: sign-in and
// sign-up on the auth service, item posts on the catalog service and accounts
// on the users service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-ports/tradeshop/internal/models"
)

// TokenSource supplies the bearer token for authenticated calls.
// *session.Store satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// Endpoints holds the base URL of each service, without trailing slash.
type Endpoints struct {
	Catalog string // e.g. http://localhost:8080/api
	Auth    string // e.g. http://localhost:8081
	Users   string // e.g. http://localhost:8081/api
}

// Client calls the REST services. It is safe for concurrent use.
type Client struct {
	endpoints Endpoints
	tokens    TokenSource
	client    *http.Client
}

// New returns a Client. A non-positive timeout defaults to 30 seconds.
func New(endpoints Endpoints, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoints: Endpoints{
			Catalog: strings.TrimRight(endpoints.Catalog, "/"),
			Auth:    strings.TrimRight(endpoints.Auth, "/"),
			Users:   strings.TrimRight(endpoints.Users, "/"),
		},
		tokens: tokens,
		client: &http.Client{Timeout: timeout},
	}
}

// Endpoints returns the configured base URLs.
func (c *Client) Endpoints() Endpoints { return c.endpoints }

// ---------------------------------------------------------------------------
// Auth service
// ---------------------------------------------------------------------------

// SignIn exchanges credentials for a JWT.
func (c *Client) SignIn(ctx context.Context, creds models.Credentials) (string, error) {
	var resp struct {
		JWT string `json:"jwt"`
	}
	err := doJSON(ctx, c.client, http.MethodPost, c.endpoints.Auth+"/authenticate/signin", nil, creds, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("api.SignIn: %w: %w", ErrInvalidCredentials, err)
		}
		return "", fmt.Errorf("api.SignIn: %w", err)
	}
	if resp.JWT == "" {
		return "", fmt.Errorf("api.SignIn: %w", ErrNoToken)
	}
	return resp.JWT, nil
}

// SignUp registers a new account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, reg models.Registration) error {
	err := doJSON(ctx, c.client, http.MethodPost, c.endpoints.Auth+"/authenticate/signup", nil, reg, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return fmt.Errorf("api.SignUp: %w: %w", ErrRegistrationFailed, err)
		}
		return fmt.Errorf("api.SignUp: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog service
// ---------------------------------------------------------------------------

// ListItems returns every item post.
func (c *Client) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := c.authed(ctx, http.MethodGet, c.endpoints.Catalog+"/itemposts/all", nil, &items); err != nil {
		return nil, fmt.Errorf("api.ListItems: %w", err)
	}
	return items, nil
}

// UserItems returns the posts owned by userID.
func (c *Client) UserItems(ctx context.Context, userID string) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := c.authed(ctx, http.MethodGet, c.endpoints.Catalog+"/itemposts/user/"+url.PathEscape(userID), nil, &items); err != nil {
		return nil, fmt.Errorf("api.UserItems: %w", err)
	}
	return items, nil
}

// GetItem returns one item post.
func (c *Client) GetItem(ctx context.Context, id models.ItemID) (models.CatalogItem, error) {
	var item models.CatalogItem
	if err := c.authed(ctx, http.MethodGet, c.endpoints.Catalog+"/itemposts/"+id.String(), nil, &item); err != nil {
		return models.CatalogItem{}, fmt.Errorf("api.GetItem: %w", err)
	}
	return item, nil
}

// CreateItem adds a post and returns the stored record.
func (c *Client) CreateItem(ctx context.Context, post models.ItemPost) (models.CatalogItem, error) {
	var item models.CatalogItem
	if err := c.authed(ctx, http.MethodPost, c.endpoints.Catalog+"/itemposts/add", post, &item); err != nil {
		return models.CatalogItem{}, fmt.Errorf("api.CreateItem: %w", err)
	}
	return item, nil
}

// UpdateItem replaces the editable fields of a post. The response body is
// not used.
func (c *Client) UpdateItem(ctx context.Context, id models.ItemID, post models.ItemPost) error {
	if err := c.authed(ctx, http.MethodPut, c.endpoints.Catalog+"/itemposts/"+id.String(), post, nil); err != nil {
		return fmt.Errorf("api.UpdateItem: %w", err)
	}
	return nil
}

// DeleteItem removes a post.
func (c *Client) DeleteItem(ctx context.Context, id models.ItemID) error {
	if err := c.authed(ctx, http.MethodDelete, c.endpoints.Catalog+"/itemposts/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("api.DeleteItem: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users service
// ---------------------------------------------------------------------------

// GetUser returns the account record for userID.
func (c *Client) GetUser(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	if err := c.authed(ctx, http.MethodGet, c.endpoints.Users+"/users/"+url.PathEscape(userID), nil, &u); err != nil {
		return models.User{}, fmt.Errorf("api.GetUser: %w", err)
	}
	return u, nil
}

// UpdateUser saves the settings form for userID.
func (c *Client) UpdateUser(ctx context.Context, userID string, upd models.AccountUpdate) error {
	if err := c.authed(ctx, http.MethodPut, c.endpoints.Users+"/users/"+url.PathEscape(userID), upd, nil); err != nil {
		return fmt.Errorf("api.UpdateUser: %w", err)
	}
	return nil
}

// DeleteUser removes the account for userID.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.authed(ctx, http.MethodDelete, c.endpoints.Users+"/users/"+url.PathEscape(userID), nil, nil); err != nil {
		return fmt.Errorf("api.DeleteUser: %w", err)
	}
	return nil
}

// authed sends a bearer-authenticated request. Without a token no request is
// made.
func (c *Client) authed(ctx context.Context, method, target string, body, out any) error {
	if c.tokens == nil {
		return ErrUnauthorized
	}
	tok, ok := c.tokens.Token()
	if !ok {
		return ErrUnauthorized
	}
	headers := map[string]string{"Authorization": "Bearer " + tok}
	return doJSON(ctx, c.client, method, target, headers, body, out)
}
