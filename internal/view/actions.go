package view

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-ports/tradeshop/internal/api"
	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/catalog"
	"github.com/go-ports/tradeshop/internal/models"
)

// ---------------------------------------------------------------------------
// Login / register
// ---------------------------------------------------------------------------

// Login signs in, stores the token and opens the dashboard.
func (c *Controller) Login(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	tok, err := c.remote.SignIn(ctx, creds)
	if err != nil {
		return fmt.Errorf("view.Login: %w", err)
	}
	if err := c.session.Login(ctx, tok); err != nil {
		return fmt.Errorf("view.Login: %w", err)
	}
	_, err = c.Navigate(ctx, RouteDashboard)
	return err
}

// Register creates an account and moves to /login. It does not sign in.
func (c *Controller) Register(ctx context.Context, reg models.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := c.remote.SignUp(ctx, reg); err != nil {
		return fmt.Errorf("view.Register: %w", err)
	}
	_, err := c.Navigate(ctx, RouteLogin)
	return err
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// RefreshItem fetches one dashboard item from the service and replaces the
// loaded copy. Only items already on the dashboard can be refreshed.
func (c *Controller) RefreshItem(ctx context.Context, id models.ItemID) (models.CatalogItem, error) {
	c.mu.Lock()
	err := c.guardLocked()
	_, known := catalog.Find(c.catalog, id)
	c.mu.Unlock()
	if err != nil {
		return models.CatalogItem{}, err
	}
	if !known {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	item, err := c.remote.GetItem(ctx, id)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("view.RefreshItem: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := slices.Clone(c.catalog)
	for i := range next {
		if next[i].ID == id {
			next[i] = item
		}
	}
	c.catalog = next
	return item, nil
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// AddToCart adds one unit of a dashboard item to the cart.
func (c *Controller) AddToCart(id models.ItemID) (models.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return models.CatalogItem{}, err
	}
	item, ok := catalog.Find(c.catalog, id)
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err := c.cart.Add(item); err != nil {
		return models.CatalogItem{}, err
	}
	return item, nil
}

// RemoveFromCart drops the line for id. Unknown ids are ignored.
func (c *Controller) RemoveFromCart(id models.ItemID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}
	c.cart.Remove(id)
	return nil
}

// ClearCart empties the cart without placing an order.
func (c *Controller) ClearCart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return err
	}
	c.cart.Clear()
	return nil
}

// CartLines returns the cart screen contents.
func (c *Controller) CartLines() ([]models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return nil, err
	}
	return c.cart.Lines(), nil
}

// Checkout submits the cart. On failure the cart is unchanged.
func (c *Controller) Checkout(ctx context.Context) (cart.Receipt, error) {
	c.mu.Lock()
	err := c.guardLocked()
	c.mu.Unlock()
	if err != nil {
		return cart.Receipt{}, err
	}
	return c.cart.Checkout(ctx, c.checkouter)
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

// Posts returns the signed-in user's posts as last loaded by /profile.
func (c *Controller) Posts() ([]models.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return nil, err
	}
	return slices.Clone(c.posts), nil
}

// CreatePost publishes a new post owned by the signed-in user. The local list
// changes only after the service accepts it.
func (c *Controller) CreatePost(ctx context.Context, post models.ItemPost) (models.CatalogItem, error) {
	uid, err := c.ownerID()
	if err != nil {
		return models.CatalogItem{}, err
	}
	if err := post.Validate(); err != nil {
		return models.CatalogItem{}, err
	}
	post.Seller = models.SellerRef{ID: uid}

	created, err := c.remote.CreateItem(ctx, post)
	if err != nil {
		return models.CatalogItem{}, fmt.Errorf("view.CreatePost: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(slices.Clone(c.posts), created)
	return created, nil
}

// UpdatePost edits one of the user's posts.
func (c *Controller) UpdatePost(ctx context.Context, id models.ItemID, post models.ItemPost) error {
	uid, err := c.ownerID()
	if err != nil {
		return err
	}
	if err := post.Validate(); err != nil {
		return err
	}
	post.Seller = models.SellerRef{ID: uid}

	if err := c.remote.UpdateItem(ctx, id, post); err != nil {
		return fmt.Errorf("view.UpdatePost: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := slices.Clone(c.posts)
	for i := range next {
		if next[i].ID == id {
			next[i] = post.Apply(next[i])
		}
	}
	c.posts = next
	return nil
}

// DeletePost removes one of the user's posts. A post the service no longer
// knows is treated as already deleted.
func (c *Controller) DeletePost(ctx context.Context, id models.ItemID) error {
	if _, err := c.ownerID(); err != nil {
		return err
	}
	if err := c.remote.DeleteItem(ctx, id); err != nil && !errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("view.DeletePost: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = slices.DeleteFunc(slices.Clone(c.posts), func(it models.CatalogItem) bool {
		return it.ID == id
	})
	return nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// Account returns the account loaded by /settings. ok is false until the
// load has finished.
func (c *Controller) Account() (u models.User, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return models.User{}, false, err
	}
	if c.account == nil {
		return models.User{}, false, nil
	}
	return *c.account, true, nil
}

// UpdateAccount saves the settings form.
func (c *Controller) UpdateAccount(ctx context.Context, upd models.AccountUpdate) error {
	uid, err := c.ownerID()
	if err != nil {
		return err
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	if err := c.remote.UpdateUser(ctx, uid, upd); err != nil {
		return fmt.Errorf("view.UpdateAccount: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.account != nil {
		updated := *c.account
		updated.Username = upd.Username
		updated.Email = upd.Email
		c.account = &updated
	}
	return nil
}

// DeleteAccount removes the account, then signs out and moves to /login.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	uid, err := c.ownerID()
	if err != nil {
		return err
	}
	if err := c.remote.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("view.DeleteAccount: %w", err)
	}
	return c.Logout(ctx)
}

// ownerID runs the guard and returns the signed-in user's id.
func (c *Controller) ownerID() (string, error) {
	c.mu.Lock()
	err := c.guardLocked()
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	return c.session.UserID()
}
