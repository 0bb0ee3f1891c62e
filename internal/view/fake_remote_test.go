package view_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ports/tradeshop/internal/api"
	"github.com/go-ports/tradeshop/internal/cart"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/session"
	"github.com/go-ports/tradeshop/internal/storage"
	"github.com/go-ports/tradeshop/internal/view"
)

// listCall scripts one ListItems response. A non-nil started is closed when
// the call begins; a non-nil gate blocks the call until it is closed.
type listCall struct {
	started chan struct{}
	gate    chan struct{}
	items   []models.CatalogItem
	err     error
}

// fakeRemote is an in-memory marketplace service.
type fakeRemote struct {
	mu      sync.Mutex
	token   string
	script  []listCall
	items   []models.CatalogItem
	posts   map[string][]models.CatalogItem
	users   map[string]models.User
	failAll error
	nextID  models.ItemID
}

func newFakeRemote(token string) *fakeRemote {
	return &fakeRemote{
		token: token,
		items: []models.CatalogItem{
			{ID: 1, ItemName: "Blue Lamp", Price: 20, Seller: &models.Seller{Username: "ann"}},
			{ID: 2, ItemName: "Chair", ItemDescription: "oak chair", Price: 45},
			{ID: 3, ItemName: "Rug", Price: 60, Seller: &models.Seller{Username: "bob"}},
		},
		posts: map[string][]models.CatalogItem{
			"3": {{ID: 10, ItemName: "Old Desk", Price: 30}},
		},
		users:  map[string]models.User{"3": {ID: "3", Username: "ann", Email: "ann@example.com"}},
		nextID: 100,
	}
}

func (f *fakeRemote) SignIn(_ context.Context, creds models.Credentials) (string, error) {
	if creds.Password != "secret" {
		return "", fmt.Errorf("api.SignIn: %w", api.ErrInvalidCredentials)
	}
	return f.token, nil
}

func (f *fakeRemote) SignUp(_ context.Context, reg models.Registration) error {
	if reg.Username == "taken" {
		return fmt.Errorf("api.SignUp: %w", api.ErrRegistrationFailed)
	}
	return nil
}

func (f *fakeRemote) ListItems(context.Context) ([]models.CatalogItem, error) {
	f.mu.Lock()
	if f.failAll != nil {
		defer f.mu.Unlock()
		return nil, f.failAll
	}
	if len(f.script) > 0 {
		call := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		if call.started != nil {
			close(call.started)
		}
		if call.gate != nil {
			<-call.gate
		}
		return call.items, call.err
	}
	defer f.mu.Unlock()
	return slices.Clone(f.items), nil
}

func (f *fakeRemote) UserItems(_ context.Context, userID string) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	return slices.Clone(f.posts[userID]), nil
}

func (f *fakeRemote) GetItem(_ context.Context, id models.ItemID) (models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return models.CatalogItem{}, f.failAll
	}
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.CatalogItem{}, fmt.Errorf("api.GetItem: %w", api.ErrNotFound)
}

// setPrice changes an item on the service side only.
func (f *fakeRemote) setPrice(id models.ItemID, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Price = price
		}
	}
}

func (f *fakeRemote) CreateItem(_ context.Context, post models.ItemPost) (models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return models.CatalogItem{}, f.failAll
	}
	f.nextID++
	item := post.Apply(models.CatalogItem{ID: f.nextID})
	f.posts[post.Seller.ID] = append(f.posts[post.Seller.ID], item)
	return item, nil
}

func (f *fakeRemote) UpdateItem(_ context.Context, id models.ItemID, post models.ItemPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	for i, it := range f.posts[post.Seller.ID] {
		if it.ID == id {
			f.posts[post.Seller.ID][i] = post.Apply(it)
			return nil
		}
	}
	return &api.StatusError{Method: "PUT", Path: "/itemposts/" + id.String(), Code: 404}
}

func (f *fakeRemote) DeleteItem(_ context.Context, id models.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	for uid, posts := range f.posts {
		for i, it := range posts {
			if it.ID == id {
				f.posts[uid] = slices.Delete(posts, i, i+1)
				return nil
			}
		}
	}
	return fmt.Errorf("api.DeleteItem: %w", &api.StatusError{Method: "DELETE", Path: "/itemposts/" + id.String(), Code: 404})
}

func (f *fakeRemote) GetUser(_ context.Context, userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return models.User{}, f.failAll
	}
	u, ok := f.users[userID]
	if !ok {
		return models.User{}, api.ErrNotFound
	}
	return u, nil
}

func (f *fakeRemote) UpdateUser(_ context.Context, userID string, upd models.AccountUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	u := f.users[userID]
	u.Username, u.Email = upd.Username, upd.Email
	f.users[userID] = u
	return nil
}

func (f *fakeRemote) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeRemote) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = err
}

func (f *fakeRemote) enqueue(call listCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, call)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	ctrl    *view.Controller
	session *session.Store
	slots   *storage.Memory
	cart    *cart.Store
	remote  *fakeRemote
	token   string
}

func userToken(c *qt.C, userID any) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": userID}).SignedString([]byte("test-key"))
	c.Assert(err, qt.IsNil)
	return tok
}

func newFixture(c *qt.C, opts ...view.Option) *fixture {
	tok := userToken(c, 3)
	slots := storage.NewMemory()
	sess := session.New(slots)
	sess.Initialize(context.Background())
	carts := cart.New()
	remote := newFakeRemote(tok)
	return &fixture{
		ctrl:    view.New(sess, remote, carts, opts...),
		session: sess,
		slots:   slots,
		cart:    carts,
		remote:  remote,
		token:   tok,
	}
}

// signIn logs in through the controller and waits for the dashboard load.
func (f *fixture) signIn(c *qt.C) {
	err := f.ctrl.Login(context.Background(), models.Credentials{Username: "ann", Password: "secret"})
	c.Assert(err, qt.IsNil)
	f.ctrl.Wait()
}
