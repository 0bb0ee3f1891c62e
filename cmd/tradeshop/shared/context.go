// Package shared holds the context passed to all CLI commands.
package shared

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-ports/tradeshop/internal/app"
	"github.com/go-ports/tradeshop/internal/config"
	"github.com/go-ports/tradeshop/internal/view"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the client home directory.
	// When empty, resolution falls through to TRADESHOP_HOME env var → persisted config → ~/.tradeshop.
	Home string
	// LogLevel overrides log.level from config.yaml when set.
	LogLevel string
}

// ResolveHome returns the effective home and where it came from. The flag
// wins over config.ResolveHome.
func (c *Context) ResolveHome() (home, source string) {
	if c.Home != "" {
		return c.Home, "flag"
	}
	return config.ResolveHome()
}

// LoadConfig reads config.yaml from the effective home.
func (c *Context) LoadConfig() (*config.ClientConfig, error) {
	home, _ := c.ResolveHome()
	return config.Load(filepath.Join(home, "config.yaml"))
}

// OpenApp builds the client for the effective home. Callers must Close it.
func (c *Context) OpenApp(ctx context.Context) (*app.App, error) {
	home, _ := c.ResolveHome()
	return app.New(ctx, home)
}

// Enter navigates to route and waits for its load to settle, returning the
// load error if there was one.
func Enter(ctx context.Context, a *app.App, route view.Route) error {
	if _, err := a.View.Navigate(ctx, route); err != nil {
		return err
	}
	a.View.Wait()
	if err := a.View.Status().Err; err != nil {
		return fmt.Errorf("load %s: %w", route, err)
	}
	return nil
}
