// Package whoamicmd implements the `tradeshop whoami` command.
package whoamicmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
)

// Command implements `tradeshop whoami`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the whoami command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
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

	w := a.Whoami()
	data := map[string]any{
		"home":          w.Home,
		"storage":       a.StoragePath(),
		"authenticated": w.Authenticated,
	}
	if w.Authenticated {
		data["user_id"] = w.UserID
		data["token"] = w.Token
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}
