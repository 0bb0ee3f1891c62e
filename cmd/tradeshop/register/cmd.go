// Package registercmd implements the `tradeshop register` command.
package registercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/models"
)

// Command implements `tradeshop register`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	reg models.Registration
}

// New creates the register command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create a marketplace account",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.reg.Username, "username", "", "Account username (required)")
	f.StringVar(&c.reg.Password, "password", "", "Account password (required)")
	f.StringVar(&c.reg.Email, "email", "", "Contact email (required)")

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

	if err := a.View.Register(cmd.Context(), c.reg); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Account created for %s\n", c.reg.Username)
	fmt.Fprintln(out, "Sign in with `tradeshop login`.")
	return nil
}
