// Package logoutcmd implements the `tradeshop logout` command.
package logoutcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
)

// Command implements `tradeshop logout`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the logout command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
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

	was := a.Session.IsAuthenticated()
	if err := a.View.Logout(cmd.Context()); err != nil {
		return err
	}
	if was {
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "No active session.")
	}
	return nil
}
