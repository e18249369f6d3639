package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "rotki-client",
	Short: "Command line client for a rotki backend",
	Long: `rotki-client talks to the REST API of a running rotki-core.
Long running queries are started as backend tasks and followed until their
result is available. The monitor command shows them in a terminal UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a config file (yaml, json or toml)")
	flags.String("base-url", "", "Base URL of the rotki API (defaults to http://localhost:<port>)")
	flags.IntP("port", "p", 4242, "Port of the rotki API")
	flags.Int("api-ready-timeout", 30, "Maximum seconds to wait for the API to be ready")
	flags.Duration("request-timeout", 30*time.Second, "Timeout of a single API request")
	flags.Duration("poll-interval", 2*time.Second, "Interval between task result polls")
	flags.Bool("start-core", false, "Start a local rotki-core process")
	flags.String("bin-path", "bin/rotki-core", "Path to the rotki-core binary")
	flags.String("data-dir", "", "Data directory passed to rotki-core")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-dir", "logs", "Directory of the monitor log file")
	flags.StringP("username", "u", os.Getenv("ROTKI_USERNAME"), "User to log in when no session is open")
	flags.String("password", "", "Password of the user (defaults to $ROTKI_PASSWORD)")

	rootCmd.AddCommand(
		newUsersCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newBalancesCmd(),
		newAccountsCmd(),
		newExchangesCmd(),
		newTagsCmd(),
		newSettingsCmd(),
		newHistoryCmd(),
		newTasksCmd(),
		newStatusCmd(),
		newRefreshCmd(),
		newMonitorCmd(),
	)
}

func main() {
	config.LoadEnvironment()
	logger.Init("info")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal("%v", err)
	}
}
