package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query and decode history events",
	}

	events := &cobra.Command{
		Use:       "events <eth_withdrawals|block_productions>",
		Short:     "Query online history events",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.EthWithdrawalsQuery), string(models.BlockProductionsQuery)},
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			if err := app.History.QueryOnlineEvents(cmd.Context(), models.QueryType(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queried %s\n", args[0])
			return nil
		}),
	}

	var wait bool
	decode := &cobra.Command{
		Use:   "decode <chain>...",
		Short: "Decode the pending transactions of EVM chains",
		Args:  cobra.MinimumNArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			ctx := cmd.Context()
			id, err := app.History.DecodeTransactions(ctx, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !wait {
				fmt.Fprintf(out, "Decoding started as task %d\n", id)
				return nil
			}

			if err := waitForTask(ctx, app, id, app.Config.PollInterval); err != nil {
				return err
			}
			decoded := app.Store.DecodedTransactions()
			for _, chain := range args {
				fmt.Fprintf(out, "%s: %d transaction(s) decoded\n", chain, decoded[chain])
			}
			return nil
		}),
	}
	decode.Flags().BoolVar(&wait, "wait", false, "Wait until the decoding finished")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show when each history source was last queried",
		Args:  cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			queried := app.Store.HistoryQueries()
			sources := make([]string, 0, len(queried))
			for source := range queried {
				sources = append(sources, source)
			}
			sort.Strings(sources)

			rows := make([][]string, 0, len(sources))
			for _, source := range sources {
				rows = append(rows, []string{source, queried[source].Format(time.RFC3339)})
			}
			printTable(cmd.OutOrStdout(), []string{"Source", "Last queried"}, rows)
			return nil
		}),
	}

	cmd.AddCommand(events, decode, status)
	return cmd
}

// waitForTask blocks until the task manager stopped tracking the task.
func waitForTask(ctx context.Context, app *services.App, id models.TaskID, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, ok := app.Tasks.Registry().Get(id); !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
