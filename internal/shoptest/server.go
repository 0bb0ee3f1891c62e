// Package shoptest provides an in-memory marketplace backend for tests. It
// serves the auth, catalog and users endpoints on one httptest server so the
// client stack can be exercised end to end without the real services.
package shoptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ports/tradeshop/internal/models"
)

// Password is accepted for every seeded account.
const Password = "secret"

var signingKey = []byte("shoptest")

type account struct {
	user     models.User
	password string
}

// Server is the fake backend. Its fields are guarded by mu; use the accessor
// methods from tests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // by username
	items    []models.CatalogItem
	nextItem models.ItemID
	nextUser int
}

// NewServer starts a backend seeded with two users (ann=1, bob=2) and three
// items. Cleanup is registered on tb automatically.
func NewServer(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{
		accounts: map[string]*account{
			"ann": {user: models.User{ID: "1", Username: "ann", Email: "ann@example.com"}, password: Password},
			"bob": {user: models.User{ID: "2", Username: "bob", Email: "bob@example.com"}, password: Password},
		},
		items: []models.CatalogItem{
			{ID: 1, ItemName: "Blue Lamp", ItemDescription: "desk lamp", Price: 19.5, Seller: &models.Seller{ID: "2", Username: "bob"}},
			{ID: 2, ItemName: "Oak Chair", ItemDescription: "solid oak", Price: 45, Seller: &models.Seller{ID: "2", Username: "bob"}},
			{ID: 3, ItemName: "Rug", Price: 60, Seller: &models.Seller{ID: "1", Username: "ann"}},
		},
		nextItem: 3,
		nextUser: 2,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /authenticate/signin", s.signIn)
	mux.HandleFunc("POST /authenticate/signup", s.signUp)
	mux.HandleFunc("GET /api/itemposts/all", s.authed(s.listItems))
	mux.HandleFunc("GET /api/itemposts/user/{id}", s.authed(s.userItems))
	mux.HandleFunc("POST /api/itemposts/add", s.authed(s.addItem))
	mux.HandleFunc("GET /api/itemposts/{id}", s.authed(s.getItem))
	mux.HandleFunc("PUT /api/itemposts/{id}", s.authed(s.updateItem))
	mux.HandleFunc("DELETE /api/itemposts/{id}", s.authed(s.deleteItem))
	mux.HandleFunc("GET /api/users/{id}", s.authed(s.getUser))
	mux.HandleFunc("PUT /api/users/{id}", s.authed(s.updateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.authed(s.deleteUser))

	s.Server = httptest.NewServer(mux)
	tb.Cleanup(s.Close)
	return s
}

// WriteConfig writes a config.yaml into home that points every service at s.
func (s *Server) WriteConfig(tb testing.TB, home string) {
	tb.Helper()
	cfg := fmt.Sprintf("api:\n  catalog_url: %[1]s/api\n  auth_url: %[1]s\n  users_url: %[1]s/api\n  timeout_seconds: 5\n", s.URL)
	if err := os.MkdirAll(home, 0o755); err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0o600); err != nil {
		tb.Fatal(err)
	}
}

// Token returns a valid bearer token for username.
func (s *Server) Token(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return ""
	}
	return sign(a.user.ID.String())
}

// Items returns a copy of the stored catalog.
func (s *Server) Items() []models.CatalogItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// HasUser reports whether username still has an account.
func (s *Server) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[username]
	return ok
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func sign(userID string) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).SignedString(signingKey)
	return tok
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	a, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || a.password != creds.Password {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"jwt": sign(a.user.ID.String())})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Username == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[reg.Username]; taken {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}
	s.nextUser++
	id := json.Number(strconv.Itoa(s.nextUser))
	s.accounts[reg.Username] = &account{
		user:     models.User{ID: id, Username: reg.Username, Email: reg.Email},
		password: reg.Password,
	}
	w.WriteHeader(http.StatusCreated)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// authed checks the bearer token and passes its userId claim on.
func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return signingKey, nil })
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		uid, _ := claims["userId"].(string)
		if !s.userExists(uid) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r, uid)
	}
}

func (s *Server) userExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID.String() == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *Server) listItems(w http.ResponseWriter, _ *http.Request, _ string) {
	writeJSON(w, s.Items())
}

func (s *Server) userItems(w http.ResponseWriter, r *http.Request, _ string) {
	owner := r.PathValue("id")
	var out []models.CatalogItem
	for _, it := range s.Items() {
		if it.Seller != nil && it.Seller.ID.String() == owner {
			out = append(out, it)
		}
	}
	if out == nil {
		out = []models.CatalogItem{}
	}
	writeJSON(w, out)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request, uid string) {
	var post models.ItemPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItem++
	item := post.Apply(models.CatalogItem{ID: s.nextItem, Seller: &models.Seller{ID: json.Number(uid), Username: s.usernameLocked(uid)}})
	s.items = append(s.items, item)
	writeJSON(w, item)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(r)
	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, s.items[i])
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request, _ string) {
	var post models.ItemPost
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(r)
	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.items[i] = post.Apply(s.items[i])
	writeJSON(w, s.items[i])
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(r)
	if i < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexLocked(r *http.Request) int {
	id, err := models.ParseItemID(r.PathValue("id"))
	if err != nil {
		return -1
	}
	return slices.IndexFunc(s.items, func(it models.CatalogItem) bool { return it.ID == id })
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byIDLocked(r.PathValue("id"))
	if a == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, a.user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, _ string) {
	var upd models.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byIDLocked(r.PathValue("id"))
	if a == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(s.accounts, a.user.Username)
	a.user.Username, a.user.Email = upd.Username, upd.Email
	if upd.Password != "" {
		a.password = upd.Password
	}
	s.accounts[a.user.Username] = a
	writeJSON(w, a.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byIDLocked(r.PathValue("id"))
	if a == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(s.accounts, a.user.Username)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) byIDLocked(id string) *account {
	for _, a := range s.accounts {
		if a.user.ID.String() == id {
			return a
		}
	}
	return nil
}

func (s *Server) usernameLocked(id string) string {
	if a := s.byIDLocked(id); a != nil {
		return a.user.Username
	}
	return ""
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
