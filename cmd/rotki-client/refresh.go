package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/services"
	"github.com/kelsos/rotki-client/internal/tui"
)

func registerRefreshFlags(cmd *cobra.Command, opts *services.RefreshOptions) {
	cmd.Flags().BoolVar(&opts.IgnoreCache, "ignore-cache", false, "Skip the backend's balance cache")
	cmd.Flags().BoolVar(&opts.History, "history", false, "Also query exchange and online history events")
	cmd.Flags().BoolVar(&opts.Decode, "decode", false, "Also decode the transactions of EVM chains")
}

func newRefreshCmd() *cobra.Command {
	var opts services.RefreshOptions
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh accounts and balances of every location",
		Args:  cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			ctx := cmd.Context()
			err := app.Refresher.Refresh(ctx, opts)
			converter := app.Balances.Converter(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Net value: %s\n", converter.Format(app.Store.TrackedValue()))
			return err
		}),
	}
	registerRefreshFlags(cmd, &opts)
	return cmd
}

func newMonitorCmd() *cobra.Command {
	var opts services.RefreshOptions
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Refresh everything and follow the tasks in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, sessionOptions{requireLogin: true, logToFile: true})
			if err != nil {
				return err
			}
			defer s.close()
			return tui.NewMonitor(s.app, s.logPath).Run(cmd.Context(), opts)
		},
	}
	registerRefreshFlags(cmd, &opts)
	return cmd
}
