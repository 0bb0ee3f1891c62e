// Package logincmd implements the `tradeshop login` command.
package logincmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/models"
)

// Command implements `tradeshop login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	username string
	password string
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.username, "username", "", "Account username (required)")
	f.StringVar(&c.password, "password", "", "Account password (required)")
	_ = c.cmd.MarkFlagRequired("username")
	_ = c.cmd.MarkFlagRequired("password")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.OpenApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	creds := models.Credentials{Username: c.username, Password: c.password}
	if err := a.View.Login(cmd.Context(), creds); err != nil {
		return err
	}
	uid, _ := a.Session.UserID()
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (user %s)\n", c.username, uid)
	return nil
}
