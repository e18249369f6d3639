package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newExchangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchanges",
		Short: "Manage connected exchanges",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List connected exchanges",
		Args:  cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			exchanges, err := app.Exchanges.FetchConnected(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(exchanges))
			for _, exchange := range exchanges {
				rows = append(rows, []string{exchange.Location, exchange.Name})
			}
			printTable(cmd.OutOrStdout(), []string{"Location", "Name"}, rows)
			return nil
		}),
	}

	var payload models.ExchangeSetupPayload
	setup := &cobra.Command{
		Use:   "setup <location> <name>",
		Short: "Connect an exchange with API credentials",
		Args:  cobra.ExactArgs(2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			payload.Location, payload.Name = args[0], args[1]
			if payload.APISecret == "" {
				payload.APISecret = envOr("ROTKI_EXCHANGE_API_SECRET", "")
			}
			if err := app.Exchanges.Setup(cmd.Context(), payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected %s (%s)\n", payload.Name, payload.Location)
			return nil
		}),
	}
	setup.Flags().StringVar(&payload.APIKey, "api-key", "", "API key")
	setup.Flags().StringVar(&payload.APISecret, "api-secret", "", "API secret (defaults to $ROTKI_EXCHANGE_API_SECRET)")
	setup.Flags().StringVar(&payload.Passphrase, "passphrase", "", "Passphrase, for exchanges that need one")

	remove := &cobra.Command{
		Use:   "remove <location> <name>",
		Short: "Disconnect an exchange",
		Args:  cobra.ExactArgs(2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			exchange := models.Exchange{Location: args[0], Name: args[1]}
			if err := app.Exchanges.Remove(cmd.Context(), exchange); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", exchange.Name, exchange.Location)
			return nil
		}),
	}

	events := &cobra.Command{
		Use:   "events <location> [name]",
		Short: "Query the trades and events of an exchange",
		Args:  cobra.RangeArgs(1, 2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			exchange := models.Exchange{Location: args[0]}
			if len(args) == 2 {
				exchange.Name = args[1]
			}
			if err := app.Exchanges.QueryEvents(cmd.Context(), exchange); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queried the events of %s\n", exchange.Location)
			return nil
		}),
	}

	cmd.AddCommand(list, setup, remove, events)
	return cmd
}
