// CLI end-to-end tests. Each test runs the root command in-process against a
// shoptest backend with a temporary home, so separate invocations share the
// stored token exactly as separate processes would. Output is captured via
// cobra's SetOut so tests never touch os.Stdout.
package rootcmd_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	rootcmd "github.com/go-ports/tradeshop/cmd/tradeshop/root"
	"github.com/go-ports/tradeshop/internal/api"
	"github.com/go-ports/tradeshop/internal/checkers"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/shoptest"
	"github.com/go-ports/tradeshop/internal/view"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// runCmd executes the root command with args and returns captured stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, nil, args...)
}

// runWithInput is runCmd with stdin attached, for the shell.
func runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := rootcmd.New()
	root.SetOut(&buf)
	if in != nil {
		root.SetIn(in)
	}
	root.SetArgs(args)
	execErr := root.ExecuteContext(context.Background())

	return buf.String(), execErr
}

// newHome starts a backend and returns a home configured to use it.
func newHome(t *testing.T) (string, *shoptest.Server) {
	t.Helper()
	backend := shoptest.NewServer(t)
	home := t.TempDir()
	backend.WriteConfig(t, home)
	return home, backend
}

func signIn(c *qt.C, t *testing.T, home string) {
	out, err := runCmd(t, "--home", home, "login", "--username", "ann", "--password", shoptest.Password)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Signed in as ann (user 1)\n")
}

// ---------------------------------------------------------------------------
// Help and version
// ---------------------------------------------------------------------------

func TestHelp_HappyPath(t *testing.T) {
	c := qt.New(t)

	out, err := runCmd(t, "--help")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "TradeShop")
	c.Assert(out, qt.Contains, "shell")
}

func TestVersion_HappyPath(t *testing.T) {
	c := qt.New(t)

	out, err := runCmd(t, "version")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Matches, `tradeshop \S+ \(commit .*\)\n`)
}

// ---------------------------------------------------------------------------
// Login / logout / whoami
// ---------------------------------------------------------------------------

func TestSession_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	out, err := runCmd(t, "--home", home, "whoami")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "authenticated: false")

	signIn(c, t, home)

	out, err = runCmd(t, "--home", home, "whoami")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "authenticated: true")
	c.Assert(out, qt.Contains, `user_id: "1"`)
	c.Assert(out, qt.Contains, "...")
	c.Assert(out, qt.Contains, filepath.Join(home, "storage.db"))

	out, err = runCmd(t, "--home", home, "logout")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Signed out.\n")

	out, err = runCmd(t, "--home", home, "logout")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "No active session.\n")
}

func TestLogin_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	c.Run("wrong password", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "login", "--username", "ann", "--password", "nope")
		c.Assert(err, qt.ErrorIs, api.ErrInvalidCredentials)
	})

	c.Run("missing --password flag", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "login", "--username", "ann")
		c.Assert(err, qt.IsNotNil)
	})

	c.Run("blank password is a validation error", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "login", "--username", "ann", "--password", " ")
		c.Assert(err, qt.ErrorIs, models.ErrValidation)
	})
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, backend := newHome(t)

	out, err := runCmd(t, "--home", home, "register", "--username", "cat", "--password", "pw", "--email", "cat@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Account created for cat")
	c.Assert(backend.HasUser("cat"), qt.IsTrue)

	_, err = runCmd(t, "--home", home, "login", "--username", "cat", "--password", "pw")
	c.Assert(err, qt.IsNil)
}

func TestRegister_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	c.Run("username taken", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "register", "--username", "ann", "--password", "pw", "--email", "a@b.c")
		c.Assert(err, qt.ErrorIs, api.ErrRegistrationFailed)
	})

	c.Run("missing email", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "register", "--username", "dan", "--password", "pw")
		c.Assert(err, qt.ErrorMatches, "email: required")
	})
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func TestItems_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)
	signIn(c, t, home)

	out, err := runCmd(t, "--home", home, "items")
	c.Assert(err, qt.IsNil)
	for _, name := range []string{"Blue Lamp", "Oak Chair", "Rug"} {
		c.Assert(out, qt.Contains, name)
	}

	out, err = runCmd(t, "--home", home, "items", "LAMP")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "| 1 | Blue Lamp | $19.50 | bob | desk lamp |")
	c.Assert(out, qt.Not(qt.Contains), "Oak Chair")

	out, err = runCmd(t, "--home", home, "items", "no", "such", "thing")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "_No items found._\n")
}

func TestItems_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	_, err := runCmd(t, "--home", home, "items")
	c.Assert(err, qt.ErrorIs, view.ErrRedirected)
}

// ---------------------------------------------------------------------------
// Posts
// ---------------------------------------------------------------------------

func TestPosts_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, backend := newHome(t)
	signIn(c, t, home)

	out, err := runCmd(t, "--home", home, "posts", "add", "--name", "Desk", "--price", "80", "--description", "pine")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Posted: Desk (id: 4)\n")

	out, err = runCmd(t, "--home", home, "posts")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Rug")
	c.Assert(out, qt.Contains, "Desk")
	c.Assert(out, qt.Not(qt.Contains), "Blue Lamp")

	out, err = runCmd(t, "--home", home, "posts", "update", "4", "--price", "90")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Updated post 4\n")
	items := backend.Items()
	c.Assert(items[3].ItemName, qt.Equals, "Desk")
	c.Assert(items[3].ItemDescription, qt.Equals, "pine")
	c.Assert(items[3].Price, qt.Equals, 90.0)

	out, err = runCmd(t, "--home", home, "posts", "delete", "4")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Deleted post 4\n")
	c.Assert(backend.Items(), qt.HasLen, 3)
}

func TestPosts_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)
	signIn(c, t, home)

	c.Run("missing name", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "posts", "add", "--price", "5")
		c.Assert(err, qt.ErrorIs, models.ErrValidation)
	})

	c.Run("negative price", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "posts", "add", "--name", "Box", "--price", "-1")
		c.Assert(err, qt.ErrorMatches, "price: must not be negative")
	})

	c.Run("update someone else's item", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "posts", "update", "1", "--price", "1")
		c.Assert(err, qt.ErrorIs, view.ErrItemNotFound)
	})

	c.Run("bad id", func(c *qt.C) {
		_, err := runCmd(t, "--home", home, "posts", "delete", "abc")
		c.Assert(err, qt.ErrorMatches, `invalid item id "abc"`)
	})
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

func TestAccount_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, backend := newHome(t)
	signIn(c, t, home)

	out, err := runCmd(t, "--home", home, "account")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "### ann (#1)\n**Email:** ann@example.com\n")

	out, err = runCmd(t, "--home", home, "account", "update", "--username", "anna", "--email", "anna@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "anna <anna@example.com>")
	c.Assert(backend.HasUser("anna"), qt.IsTrue)
	c.Assert(backend.HasUser("ann"), qt.IsFalse)

	out, err = runCmd(t, "--home", home, "account", "delete", "--yes")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Account deleted")
	c.Assert(backend.HasUser("anna"), qt.IsFalse)

	out, err = runCmd(t, "--home", home, "whoami")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "authenticated: false")
}

func TestAccount_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, backend := newHome(t)
	signIn(c, t, home)

	_, err := runCmd(t, "--home", home, "account", "delete")
	c.Assert(err, qt.ErrorMatches, "refusing to delete the account without --yes")
	c.Assert(backend.HasUser("ann"), qt.IsTrue)

	_, err = runCmd(t, "--home", home, "account", "update", "--username", "ann")
	c.Assert(err, qt.ErrorMatches, "email: required")
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfig_HappyPath(t *testing.T) {
	c := qt.New(t)
	t.Setenv("HOME", t.TempDir())
	home, backend := newHome(t)

	out, err := runCmd(t, "--home", home, "config")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "home_source: flag")
	c.Assert(out, qt.Contains, "catalog_url: "+backend.URL+"/api")
	c.Assert(out, qt.Contains, "timeout_seconds: 5")

	fresh := filepath.Join(t.TempDir(), "fresh")
	out, err = runCmd(t, "--home", fresh, "config", "init")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Created "+filepath.Join(fresh, "config.yaml"))

	out, err = runCmd(t, "--home", fresh, "config", "init")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Config already exists")

	out, err = runCmd(t, "--home", fresh, "config")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "catalog_url: http://localhost:8080/api")
}

func TestConfigHome_HappyPath(t *testing.T) {
	c := qt.New(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRADESHOP_HOME", "")
	target := filepath.Join(t.TempDir(), "shop")

	out, err := runCmd(t, "config", "set-home", target)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Persisted home: "+target)
	_, statErr := os.Stat(target)
	c.Assert(statErr, qt.IsNil)

	out, err = runCmd(t, "config")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "home_source: config")

	out, err = runCmd(t, "config", "clear-home")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Cleared persisted home setting.")

	out, err = runCmd(t, "config", "clear-home")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "No persisted home setting was found.")
}

func TestConfig_FailurePath(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()
	c.Assert(os.WriteFile(filepath.Join(home, "config.yaml"), []byte("api: [oops"), 0o600), qt.IsNil)

	_, err := runCmd(t, "--home", home, "config")
	c.Assert(err, qt.ErrorMatches, "config.Load: .*")
}

// ---------------------------------------------------------------------------
// Shell
// ---------------------------------------------------------------------------

func TestShell_HappyPath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	script := strings.Join([]string{
		"login ann " + shoptest.Password,
		"search lamp",
		"show 1",
		"add 1",
		"add 1",
		"clear",
		"add 2",
		"remove 2",
		"go cart",
		"checkout",
		"cart",
		"add 3",
		"clear-cart",
		"posts",
		"logout",
		"quit",
	}, "\n")
	out, err := runWithInput(t, strings.NewReader(script), "--home", home, "shell")
	c.Assert(err, qt.IsNil)

	c.Assert(out, qt.Contains, "[/login] > ")
	c.Assert(out, qt.Contains, `[/dashboard | search: "lamp" | cart: 0] > `)
	c.Assert(out, qt.Contains, "### Blue Lamp (#1)\n**Price:** $19.50")
	c.Assert(out, qt.Contains, "Added Blue Lamp to the cart.")
	c.Assert(out, qt.Contains, "Added Rug to the cart.\n[/cart | cart: 1] > ")
	c.Assert(out, qt.Contains, "[/cart | cart: 2] > ")
	c.Assert(out, qt.Contains, "## Order confirmed\n\n- 2 × Blue Lamp ($39.00)\n\n**Items:** 2\n**Total:** $39.00\n")
	c.Assert(out, qt.Contains, "_Your cart is empty._")
	c.Assert(out, qt.Contains, "| 3 | Rug | $60.00 | ann | - |")
	c.Assert(out, qt.Contains, "Signed out.")
	c.Assert(out, qt.Not(qt.Contains), "error:")
}

func TestShell_FailurePath(t *testing.T) {
	c := qt.New(t)
	home, _ := newHome(t)

	script := strings.Join([]string{
		"go cart",
		"add 1",
		"bogus",
		"go nowhere",
		"login ann",
		"login ann " + shoptest.Password,
		"add 99",
		"show 99",
		"checkout",
	}, "\n")
	out, err := runWithInput(t, strings.NewReader(script), "--home", home, "shell")
	c.Assert(err, qt.IsNil)

	c.Assert(out, qt.Contains, "error: not signed in: redirected to /login")
	c.Assert(out, qt.Contains, `error: unknown command "bogus" (try help)`)
	c.Assert(out, qt.Contains, `error: unknown route: "/nowhere"`)
	c.Assert(out, qt.Contains, "error: usage: login <username> <password>")
	c.Assert(out, qt.Contains, "error: item not found: 99")
	c.Assert(out, qt.Contains, "error: cart is empty")
}

// ---------------------------------------------------------------------------
// Setup
// ---------------------------------------------------------------------------

func TestSetup_HappyPath(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	home := filepath.Join(t.TempDir(), "agent-home")

	out, err := runCmd(t, "--home", home, "setup", "claude-code", "--project", "--dir", dir)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Installed")

	data, err := os.ReadFile(filepath.Join(dir, ".mcp.json"))
	c.Assert(err, qt.IsNil)
	c.Assert(data, checkers.JSONPathEquals("$.mcpServers.tradeshop.args"), []any{"mcp", "--home", home})

	out, err = runCmd(t, "--home", home, "setup", "claude-code", "--project", "--dir", dir)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Already installed\n")

	out, err = runCmd(t, "setup", "claude-code", "--project", "--dir", dir, "--uninstall")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Removed")
}
