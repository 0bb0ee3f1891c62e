// Package itemscmd implements the `tradeshop items` command.
package itemscmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/markdown"
	"github.com/go-ports/tradeshop/internal/view"
)

// Command implements `tradeshop items`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the items command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "items [query...]",
		Short: "List catalog items, filtered by name, description or seller",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	a, err := c.ctx.OpenApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := shared.Enter(cmd.Context(), a, view.RouteDashboard); err != nil {
		return err
	}
	a.View.SetQuery(strings.Join(args, " "))
	items, err := a.View.VisibleItems()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), markdown.RenderItems(items))
	return nil
}
