// Package accountcmd implements the `tradeshop account` command group: the
// settings screen.
package accountcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/models"
	"github.com/go-ports/tradeshop/internal/view"
)

// errNotConfirmed is returned by `account delete` without --yes.
var errNotConfirmed = errors.New("refusing to delete the account without --yes")

// Command implements `tradeshop account`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the account command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "account",
		Short: "Show or manage your account",
		Args:  cobra.NoArgs,
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		newUpdate(ctx),
		newDelete(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.OpenApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := shared.Enter(cmd.Context(), a, view.RouteSettings); err != nil {
		return err
	}
	u, _, err := a.View.Account()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderUser(u))
	return nil
}

// ---------------------------------------------------------------------------
// account update
// ---------------------------------------------------------------------------

func newUpdate(ctx *shared.Context) *cobra.Command {
	var upd models.AccountUpdate
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change username, email or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := ctx.OpenApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.View.UpdateAccount(cmd.Context(), upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account updated: %s <%s>\n", upd.Username, upd.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&upd.Username, "username", "", "New username (required)")
	f.StringVar(&upd.Email, "email", "", "New email (required)")
	f.StringVar(&upd.Password, "password", "", "New password (unchanged when empty)")
	return cmd
}

// ---------------------------------------------------------------------------
// account delete
// ---------------------------------------------------------------------------

func newDelete(ctx *shared.Context) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNotConfirmed
			}
			a, err := ctx.OpenApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.View.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted. Signed out.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm account deletion")
	return cmd
}
