// Package rootcmd wires the root cobra.Command for the tradeshop CLI binary.
package rootcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	accountcmd "github.com/go-ports/tradeshop/cmd/tradeshop/account"
	configcmd "github.com/go-ports/tradeshop/cmd/tradeshop/config"
	itemscmd "github.com/go-ports/tradeshop/cmd/tradeshop/items"
	logincmd "github.com/go-ports/tradeshop/cmd/tradeshop/login"
	logoutcmd "github.com/go-ports/tradeshop/cmd/tradeshop/logout"
	mcpcmd "github.com/go-ports/tradeshop/cmd/tradeshop/mcp"
	postscmd "github.com/go-ports/tradeshop/cmd/tradeshop/posts"
	registercmd "github.com/go-ports/tradeshop/cmd/tradeshop/register"
	setupcmd "github.com/go-ports/tradeshop/cmd/tradeshop/setup"
	"github.com/go-ports/tradeshop/cmd/tradeshop/shared"
	shellcmd "github.com/go-ports/tradeshop/cmd/tradeshop/shell"
	versioncmd "github.com/go-ports/tradeshop/cmd/tradeshop/version"
	whoamicmd "github.com/go-ports/tradeshop/cmd/tradeshop/whoami"
)

// New creates and returns the root cobra.Command for the tradeshop CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "tradeshop",
		Short:         "TradeShop marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			installLogger(cmd, ctx)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(
		&ctx.Home, "home", "",
		"Override client home directory (default: $TRADESHOP_HOME env → persisted config → ~/.tradeshop)",
	)
	pf.StringVar(&ctx.LogLevel, "log-level", "", "Log level: debug, info, warn or error (default from config.yaml)")

	root.AddCommand(
		logincmd.New(ctx).Cmd(),
		registercmd.New(ctx).Cmd(),
		logoutcmd.New(ctx).Cmd(),
		whoamicmd.New(ctx).Cmd(),
		itemscmd.New(ctx).Cmd(),
		postscmd.New(ctx).Cmd(),
		accountcmd.New(ctx).Cmd(),
		shellcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
		versioncmd.New().Cmd(),
	)

	return root
}

// installLogger routes slog to stderr at the configured level. A config file
// that fails to parse is reported by the command itself, so it is ignored here.
func installLogger(cmd *cobra.Command, ctx *shared.Context) {
	cfg, err := ctx.LoadConfig()
	if err != nil {
		return
	}
	if ctx.LogLevel != "" {
		cfg.Log.Level = ctx.LogLevel
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(h))
}
