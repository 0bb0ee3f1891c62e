// Package app builds the client object graph for one home directory:
// configuration, local storage, session, cart, REST client and the screen
// controller.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ports/tradeshop/internal/api"
	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/config"
	"github.com/go-ports/tradeshop/internal/redaction"
	"github.com/go-ports/tradeshop/internal/session"
	"github.com/go-ports/tradeshop/internal/storage"
	"github.com/go-ports/tradeshop/internal/view"
)

// App holds the wired components. Build it with New and release it with
// Close.
type App struct {
	Home    string
	Config  *config.ClientConfig
	Session *session.Store
	Cart    *cart.Store
	API     *api.Client
	View    *view.Controller

	storage *storage.DB
}

// New initialises an App rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(ctx context.Context, home string) (*App, error) {
	if home == "" {
		home = config.GetHome()
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("app.New: create home: %w", err)
	}

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("app.New: load config: %w", err)
	}

	db, err := storage.Open(cfg.StoragePath(home))
	if err != nil {
		return nil, fmt.Errorf("app.New: open storage: %w", err)
	}

	sess := session.New(db)
	sess.Initialize(ctx)

	carts := cart.New()
	client := api.New(api.Endpoints{
		Catalog: cfg.API.CatalogURL,
		Auth:    cfg.API.AuthURL,
		Users:   cfg.API.UsersURL,
	}, sess, cfg.API.Timeout())

	return &App{
		Home:    home,
		Config:  cfg,
		Session: sess,
		Cart:    carts,
		API:     client,
		View:    view.New(sess, client, carts),
		storage: db,
	}, nil
}

// Close waits for in-flight screen loads and closes local storage.
func (a *App) Close() error {
	a.View.Wait()
	return a.storage.Close()
}

// StoragePath returns the path of the local storage database.
func (a *App) StoragePath() string {
	return a.storage.Path()
}

// Whoami summarises the session for status output. The token is masked.
type Whoami struct {
	Home          string     `json:"home"`
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	Token         string     `json:"token,omitempty"`
	Route         view.Route `json:"route"`
	CartCount     int        `json:"cartCount"`
}

// Whoami reports the current session state.
func (a *App) Whoami() Whoami {
	w := Whoami{
		Home:          a.Home,
		Authenticated: a.Session.IsAuthenticated(),
		Route:         a.View.Route(),
		CartCount:     a.Cart.Count(),
	}
	if tok, ok := a.Session.Token(); ok {
		w.Token = redaction.MaskToken(tok)
	}
	if uid, err := a.Session.UserID(); err == nil {
		w.UserID = uid
	}
	return w
}
