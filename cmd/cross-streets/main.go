package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ritzau/cross-streets/pkg/config"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root without a subcommand
// is the same as "serve".
func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:   "cross-streets",
		Short: "Count the cross streets along a route of picked streets",
		Long: `cross-streets loads a street graph, keeps a set of picked streets that
round-trips through the shareable "r" URL parameter, and reports how many
cross streets the route passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd.Flags(), cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.String("data", "routes.json", "Path to the street dataset (JSON)")
	pf.StringP("route", "r", "", `Initial route as a comma separated list of street names`)
	pf.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	pf.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	pf.String("log-format", "compact", "Log format: compact or json")

	addServeFlags(root.Flags())

	root.AddCommand(newServeCmd(cfg), newCountCmd(cfg))
	return root
}

// setup layers config and configures logging
func setup(flags *pflag.FlagSet, cfg *config.Config) error {
	loaded, err := config.Load(flags)
	if err != nil {
		return err
	}
	*cfg = *loaded

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return err
	}
	if err := logging.Configure(os.Stderr, level, cfg.LogFormat); err != nil {
		return err
	}

	logging.Debug("configuration loaded",
		"data", cfg.Data,
		"addr", cfg.Addr(),
		"watch", cfg.Watch,
		"logFormat", cfg.LogFormat,
	)
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
