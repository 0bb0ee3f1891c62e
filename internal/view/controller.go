// Package view implements the screen controller: the route guard, the shared
// search query, the header state and the per-screen remote loads.
package view

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/catalog"
	"github.com/go-ports/tradeshop/internal/models"
)

var (
	// ErrRedirected is returned when a protected screen is requested without
	// an authenticated session. The controller is then on /login.
	ErrRedirected = errors.New("not signed in: redirected to /login")
	// ErrUnknownRoute is returned by ParseRoute and Navigate.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrItemNotFound is returned when an action names an item that is not on
	// the current screen.
	ErrItemNotFound = errors.New("item not found")
)

// Session is the subset of *session.Store the controller needs.
type Session interface {
	IsAuthenticated() bool
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	UserID() (string, error)
}

// Remote is the subset of *api.Client the controller needs.
type Remote interface {
	SignIn(ctx context.Context, creds models.Credentials) (string, error)
	SignUp(ctx context.Context, reg models.Registration) error
	ListItems(ctx context.Context) ([]models.CatalogItem, error)
	UserItems(ctx context.Context, userID string) ([]models.CatalogItem, error)
	GetItem(ctx context.Context, id models.ItemID) (models.CatalogItem, error)
	CreateItem(ctx context.Context, post models.ItemPost) (models.CatalogItem, error)
	UpdateItem(ctx context.Context, id models.ItemID, post models.ItemPost) error
	DeleteItem(ctx context.Context, id models.ItemID) error
	GetUser(ctx context.Context, userID string) (models.User, error)
	UpdateUser(ctx context.Context, userID string, upd models.AccountUpdate) error
	DeleteUser(ctx context.Context, userID string) error
}

// Header is the navigation bar state. It is zero when signed out.
type Header struct {
	Visible   bool   `json:"visible"`
	Query     string `json:"query"`
	CartCount int    `json:"cartCount"`
	Active    Route  `json:"active"`
}

// Status describes the load started by the last navigation.
type Status struct {
	Route   Route `json:"route"`
	Loading bool  `json:"loading"`
	Err     error `json:"-"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithCheckouter replaces cart.Confirm as the order submitter.
func WithCheckouter(co cart.Checkouter) Option {
	return func(c *Controller) {
		if co != nil {
			c.checkouter = co
		}
	}
}

// Controller owns the current route and the data shown on it. All methods are
// safe for concurrent use.
type Controller struct {
	session    Session
	remote     Remote
	cart       *cart.Store
	checkouter cart.Checkouter

	mu      sync.Mutex
	route   Route
	query   string
	gen     uint64
	cancel  context.CancelFunc
	status  Status
	catalog []models.CatalogItem
	posts   []models.CatalogItem
	account *models.User
	// pending holds a done channel per in-flight load, keyed by generation.
	pending map[uint64]chan struct{}
}

// New returns a Controller on /login. Call Navigate to move to a screen.
func New(sess Session, remote Remote, carts *cart.Store, opts ...Option) *Controller {
	c := &Controller{
		session:    sess,
		remote:     remote,
		cart:       carts,
		checkouter: cart.Confirm,
		route:      RouteLogin,
		status:     Status{Route: RouteLogin},
		pending:    make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Navigate moves to route, re-checking the session on every call. A
// protected route without a session lands on /login with ErrRedirected.
// Entering the dashboard, profile or settings screen starts its load in the
// background; Wait blocks until it settles.
func (c *Controller) Navigate(ctx context.Context, route Route) (Route, error) {
	route, err := ParseRoute(string(route))
	if err != nil {
		return c.Route(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if route.Protected() && !c.session.IsAuthenticated() {
		c.redirectLocked()
		return RouteLogin, ErrRedirected
	}

	gen := c.enterLocked(route)
	if load := c.loaderFor(route); load != nil {
		c.status.Loading = true
		loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel
		done := make(chan struct{})
		c.pending[gen] = done
		go c.run(loadCtx, gen, route, load, done)
	}
	return route, nil
}

// Route returns the current route. If the session ended outside the
// controller the guard runs first, so a protected route is never reported
// while signed out.
func (c *Controller) Route() Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.route.Protected() && !c.session.IsAuthenticated() {
		c.redirectLocked()
	}
	return c.route
}

// Status returns the load state of the current screen.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Wait blocks until every load started before the call has finished. Loads
// started while waiting are not waited for.
func (c *Controller) Wait() {
	c.mu.Lock()
	waiting := make([]chan struct{}, 0, len(c.pending))
	for _, done := range c.pending {
		waiting = append(waiting, done)
	}
	c.mu.Unlock()

	for _, done := range waiting {
		<-done
	}
}

// Header returns the navigation bar state.
func (c *Controller) Header() Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.IsAuthenticated() {
		return Header{}
	}
	return Header{
		Visible:   true,
		Query:     c.query,
		CartCount: c.cart.Count(),
		Active:    c.route,
	}
}

// Logout ends the session and moves to /login in one step: no caller sees a
// protected route after the session is gone. Loaded screen data is dropped;
// the cart is kept for the process lifetime. A storage failure is returned
// after the transition has happened.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.session.Logout(ctx)
	c.enterLocked(RouteLogin)
	c.catalog, c.posts, c.account = nil, nil, nil
	return err
}

// enterLocked switches route, invalidating any load still in flight.
func (c *Controller) enterLocked(route Route) uint64 {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.route = route
	c.status = Status{Route: route}
	return c.gen
}

func (c *Controller) redirectLocked() {
	c.enterLocked(RouteLogin)
}

// guardLocked enforces the session check for protected screen data.
func (c *Controller) guardLocked() error {
	if c.session.IsAuthenticated() {
		return nil
	}
	c.redirectLocked()
	return ErrRedirected
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// SetQuery replaces the search query shared by the header and the dashboard.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// ClearQuery resets the search so the full catalog is visible again.
func (c *Controller) ClearQuery() {
	c.SetQuery("")
}

// Query returns the current search query.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// VisibleItems returns the loaded catalog filtered by the current query. It
// is recomputed on every call.
func (c *Controller) VisibleItems() ([]models.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return nil, err
	}
	return catalog.FilterItems(c.catalog, c.query), nil
}

// Catalog returns the loaded catalog without the search filter.
func (c *Controller) Catalog() ([]models.CatalogItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked(); err != nil {
		return nil, err
	}
	return slices.Clone(c.catalog), nil
}

// ---------------------------------------------------------------------------
// Loads
// ---------------------------------------------------------------------------

// loadFunc fetches a screen's data and returns a function that stores it.
// apply runs under c.mu.
type loadFunc func(ctx context.Context) (apply func(), err error)

func (c *Controller) loaderFor(route Route) loadFunc {
	switch route {
	case RouteDashboard:
		return c.loadCatalog
	case RouteProfile:
		return c.loadPosts
	case RouteSettings:
		return c.loadAccount
	}
	return nil
}

func (c *Controller) run(ctx context.Context, gen uint64, route Route, load loadFunc, done chan struct{}) {
	defer close(done)
	apply, err := load(ctx)
	c.finish(gen, route, apply, err)
}

// finish applies a load result only if no navigation happened since it
// started. Late results are dropped.
func (c *Controller) finish(gen uint64, route Route, apply func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, gen)
	if gen != c.gen {
		slog.Debug("view: discarding stale load", "route", string(route), "gen", gen, "current", c.gen)
		return
	}
	if err != nil {
		slog.Warn("view: load failed", "route", string(route), "err", err)
	} else if apply != nil {
		apply()
	}
	c.status.Loading = false
	c.status.Err = err
	c.cancel = nil
}

func (c *Controller) loadCatalog(ctx context.Context) (func(), error) {
	items, err := c.remote.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return func() { c.catalog = items }, nil
}

func (c *Controller) loadPosts(ctx context.Context) (func(), error) {
	uid, err := c.session.UserID()
	if err != nil {
		return nil, err
	}
	items, err := c.remote.UserItems(ctx, uid)
	if err != nil {
		return nil, err
	}
	return func() { c.posts = items }, nil
}

func (c *Controller) loadAccount(ctx context.Context) (func(), error) {
	uid, err := c.session.UserID()
	if err != nil {
		return nil, err
	}
	u, err := c.remote.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return func() { c.account = &u }, nil
}
