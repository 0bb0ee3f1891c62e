package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ports/tradeshop/internal/app"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/view"
)

// newService serves sign-in and the catalog like the marketplace backend.
func newService(c *qt.C) (*httptest.Server, string) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 7}).SignedString([]byte("k"))
	c.Assert(err, qt.IsNil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authenticate/signin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"jwt":%q}`, tok)
	})
	mux.HandleFunc("GET /api/itemposts/all", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+tok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"itemName":"Blue Lamp","price":20,"seller":{"id":7,"username":"ann"}}]`))
	})
	srv := httptest.NewServer(mux)
	c.Cleanup(srv.Close)
	return srv, tok
}

func writeConfig(c *qt.C, home, baseURL string) {
	cfg := fmt.Sprintf("api:\n  catalog_url: %s/api\n  auth_url: %s\n  users_url: %s/api\n", baseURL, baseURL, baseURL)
	c.Assert(os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0o600), qt.IsNil)
}

func TestNew_HappyPath(t *testing.T) {
	c := qt.New(t)

	home := filepath.Join(t.TempDir(), "home")
	a, err := app.New(context.Background(), home)
	c.Assert(err, qt.IsNil)
	defer a.Close()

	c.Assert(a.Home, qt.Equals, home)
	c.Assert(a.StoragePath(), qt.Equals, filepath.Join(home, "storage.db"))
	c.Assert(a.API.Endpoints().Catalog, qt.Equals, "http://localhost:8080/api")
	c.Assert(a.Session.IsAuthenticated(), qt.IsFalse)
	c.Assert(a.View.Route(), qt.Equals, view.RouteLogin)
}

func TestNew_FailurePath(t *testing.T) {
	c := qt.New(t)

	home := t.TempDir()
	c.Assert(os.WriteFile(filepath.Join(home, "config.yaml"), []byte("api: [broken\n"), 0o600), qt.IsNil)
	_, err := app.New(context.Background(), home)
	c.Assert(err, qt.ErrorMatches, "app.New: load config: .*")
}

func TestSessionSurvivesRestart(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	srv, tok := newService(c)

	home := t.TempDir()
	writeConfig(c, home, srv.URL)

	a, err := app.New(ctx, home)
	c.Assert(err, qt.IsNil)
	c.Assert(a.View.Login(ctx, models.Credentials{Username: "ann", Password: "pw"}), qt.IsNil)
	a.View.Wait()
	items, err := a.View.VisibleItems()
	c.Assert(err, qt.IsNil)
	c.Assert(items, qt.HasLen, 1)
	c.Assert(a.Close(), qt.IsNil)

	b, err := app.New(ctx, home)
	c.Assert(err, qt.IsNil)
	defer b.Close()

	got, ok := b.Session.Token()
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, tok)

	w := b.Whoami()
	c.Assert(w.Authenticated, qt.IsTrue)
	c.Assert(w.UserID, qt.Equals, "7")
	c.Assert(w.Token, qt.Equals, tok[:6]+"...")

	// A fresh process starts on /login; the guard lets it straight in.
	_, err = b.View.Navigate(ctx, view.RouteDashboard)
	c.Assert(err, qt.IsNil)
	b.View.Wait()
	c.Assert(b.View.Status().Err, qt.IsNil)

	c.Assert(b.View.Logout(ctx), qt.IsNil)
	c.Assert(b.Whoami().Authenticated, qt.IsFalse)
}
