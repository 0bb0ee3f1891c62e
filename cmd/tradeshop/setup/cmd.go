// Package setupcmd implements the `tradeshop setup` command group.
package setupcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	"github.com/go-ports/tradeshop/internal/setup"
)

// Command implements `tradeshop setup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the setup command group with one subcommand per agent.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "setup",
		Short: "Register the TradeShop MCP server with a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, agent := range setup.Agents {
		c.cmd.AddCommand(newAgent(ctx, agent))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func newAgent(ctx *shared.Context, agent setup.Agent) *cobra.Command {
	var (
		dir     string
		project bool
		remove  bool
	)
	cmd := &cobra.Command{
		Use:   string(agent),
		Short: fmt.Sprintf("Install the TradeShop MCP server into %s", agent),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := setup.ConfigPath(agent, project, dir)
			if err != nil {
				return err
			}
			var res setup.Result
			if remove {
				res, err = setup.Uninstall(agent, path)
			} else {
				// Only an explicit --home is pinned; otherwise the server
				// resolves its home at startup like any other command.
				res, err = setup.Install(agent, path, ctx.Home)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&project, "project", false, "Write the project config instead of the per-user one")
	f.StringVar(&dir, "dir", "", "Project directory for --project (default: current directory)")
	f.BoolVar(&remove, "uninstall", false, "Remove the server entry instead")
	return cmd
}
