// Package shellcmd implements the `tradeshop shell` command: an interactive
// session over one controller, cart and token, the way a browser tab holds
// them. The cart lives as long as the shell does.
package shellcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/app"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/view"
)

const helpText = `Commands:
  go <route>                  open /dashboard, /cart, /profile, /settings, /login or /register
  search <terms...>           filter the dashboard by name, description or seller
  clear                       clear the search
  items                       show the dashboard items
  show <id>                   refresh and show one dashboard item
  add <id>                    add one unit of an item to the cart
  remove <id>                 remove an item line from the cart
  cart                        show the cart
  clear-cart                  empty the cart without ordering
  checkout                    place the order and empty the cart
  posts                       show your item posts
  post <price> <name...>      publish a new item post
  delete <id>                 delete one of your posts
  account                     show your account
  login <username> <password> sign in
  register <user> <pw> <mail> create an account
  logout                      sign out
  whoami                      show the session
  quit                        leave the shell
`

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// Command implements `tradeshop shell`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the shell command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "shell",
		Short: "Browse the marketplace interactively",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := c.ctx.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sh := &shell{app: a, out: cmd.OutOrStdout()}
	start := view.RouteDashboard
	if !a.Session.IsAuthenticated() {
		start = view.RouteLogin
	}
	if err := sh.enter(ctx, start); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
	}
	return sh.loop(ctx, cmd.InOrStdin())
}

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

type shell struct {
	app *app.App
	out io.Writer
}

func (s *shell) loop(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		err := s.exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// prompt renders the header: route, search and cart count when signed in.
func (s *shell) prompt() string {
	h := s.app.View.Header()
	if !h.Visible {
		return fmt.Sprintf("[%s] > ", s.app.View.Route())
	}
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(h.Active))
	if h.Query != "" {
		fmt.Fprintf(&sb, " | search: %q", h.Query)
	}
	fmt.Fprintf(&sb, " | cart: %d] > ", h.CartCount)
	return sb.String()
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	v := s.app.View

	switch name {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "go":
		if len(args) != 1 {
			return errors.New("usage: go <route>")
		}
		route, err := view.ParseRoute(args[0])
		if err != nil {
			return err
		}
		return s.enter(ctx, route)
	case "search":
		v.SetQuery(strings.Join(args, " "))
		return s.showItems()
	case "clear":
		v.ClearQuery()
		return s.showItems()
	case "items":
		return s.showItems()
	case "show":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return s.showItem(ctx, id)
	case "add":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		item, err := v.AddToCart(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added %s to the cart.\n", item.ItemName)
	case "remove":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := v.RemoveFromCart(id); err != nil {
			return err
		}
		return s.showCart()
	case "cart":
		return s.showCart()
	case "clear-cart":
		if err := v.ClearCart(); err != nil {
			return err
		}
		return s.showCart()
	case "checkout":
		r, err := v.Checkout(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, markdown.RenderReceipt(r))
	case "posts":
		return s.enter(ctx, view.RouteProfile)
	case "post":
		return s.post(ctx, args)
	case "delete":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := v.DeletePost(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted post %s\n", id)
	case "account":
		return s.enter(ctx, view.RouteSettings)
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <username> <password>")
		}
		if err := v.Login(ctx, models.Credentials{Username: args[0], Password: args[1]}); err != nil {
			return err
		}
		return s.settle(view.RouteDashboard)
	case "register":
		if len(args) != 3 {
			return errors.New("usage: register <username> <password> <email>")
		}
		reg := models.Registration{Username: args[0], Password: args[1], Email: args[2]}
		if err := v.Register(ctx, reg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Account created for %s. Sign in with `login`.\n", reg.Username)
	case "logout":
		if err := v.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Signed out.")
	case "whoami":
		w := s.app.Whoami()
		if !w.Authenticated {
			fmt.Fprintln(s.out, "Not signed in.")
			return nil
		}
		fmt.Fprintf(s.out, "Signed in as user %s (token %s)\n", w.UserID, w.Token)
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

// enter navigates to route, waits for its load and renders the screen.
func (s *shell) enter(ctx context.Context, route view.Route) error {
	got, err := s.app.View.Navigate(ctx, route)
	if err != nil {
		return err
	}
	return s.settle(got)
}

func (s *shell) settle(route view.Route) error {
	s.app.View.Wait()
	if err := s.app.View.Status().Err; err != nil {
		return fmt.Errorf("load %s: %w", route, err)
	}
	return s.render(route)
}

func (s *shell) render(route view.Route) error {
	switch route {
	case view.RouteDashboard:
		return s.showItems()
	case view.RouteCart:
		return s.showCart()
	case view.RouteProfile:
		posts, err := s.app.View.Posts()
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, markdown.RenderItems(posts))
	case view.RouteSettings:
		u, _, err := s.app.View.Account()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, markdown.RenderUser(u))
	case view.RouteLogin:
		fmt.Fprintln(s.out, "Sign in with `login <username> <password>` or type `help`.")
	case view.RouteRegister:
		fmt.Fprintln(s.out, "Create an account with `register <username> <password> <email>`.")
	}
	return nil
}

func (s *shell) showItems() error {
	items, err := s.app.View.VisibleItems()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, markdown.RenderItems(items))
	return nil
}

func (s *shell) showItem(ctx context.Context, id models.ItemID) error {
	item, err := s.app.View.RefreshItem(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, markdown.RenderItem(item))
	return nil
}

func (s *shell) showCart() error {
	lines, err := s.app.View.CartLines()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, markdown.RenderCart(lines))
	return nil
}

func (s *shell) post(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: post <price> <name...>")
	}
	price, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("price %q: %w", args[0], err)
	}
	created, err := s.app.View.CreatePost(ctx, models.ItemPost{
		ItemName: strings.Join(args[1:], " "),
		Price:    price,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Posted: %s (id: %s)\n", created.ItemName, created.ID)
	return nil
}

func parseID(args []string) (models.ItemID, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one item id")
	}
	return models.ParseItemID(args[0])
}
