package view

import (
	"fmt"
	"strings"
)

// Route names a screen.
type Route string

const (
	RouteRoot      Route = "/"
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/dashboard"
	RouteCart      Route = "/cart"
	RouteProfile   Route = "/profile"
	RouteSettings  Route = "/settings"
)

// Routes lists every navigable screen in menu order.
var Routes = []Route{RouteLogin, RouteRegister, RouteDashboard, RouteProfile, RouteSettings, RouteCart}

// Protected reports whether the screen requires an authenticated session.
func (r Route) Protected() bool {
	switch r {
	case RouteDashboard, RouteCart, RouteProfile, RouteSettings:
		return true
	}
	return false
}

// ParseRoute accepts "/cart", "cart" or "Cart". The root path resolves to
// the dashboard.
func ParseRoute(s string) (Route, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	r := Route(s)
	if r == RouteRoot {
		return RouteDashboard, nil
	}
	for _, known := range Routes {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoute, s)
}
