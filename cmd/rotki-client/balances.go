package main

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newBalancesCmd() *cobra.Command {
	var (
		ignoreCache bool
		chains      []string
		exchanges   []string
	)

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Query balances",
		Long: `Without flags the aggregated balances of all locations are queried.
With --chain or --exchange only the given locations are queried and shown per account.`,
		Args: cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			converter := app.Balances.Converter(ctx)

			if len(chains) == 0 && len(exchanges) == 0 {
				result, err := app.Balances.FetchBalances(ctx, ignoreCache)
				if err != nil {
					return err
				}
				printTable(out, []string{"Asset", "Amount", "Value"}, totalRows(result, converter.Format))
				fmt.Fprintf(out, "Net value: %s\n", converter.Format(result.NetValue()))
				return nil
			}

			for _, chain := range chains {
				if _, err := app.Accounts.FetchAccounts(ctx, chain); err != nil {
					return err
				}
				if err := app.Balances.FetchBlockchainBalances(ctx, chain, ignoreCache); err != nil {
					return err
				}
				perAccount := app.Store.BlockchainBalances(chain)
				addresses := make([]string, 0, len(perAccount))
				for address := range perAccount {
					addresses = append(addresses, address)
				}
				sort.Strings(addresses)

				for _, address := range addresses {
					fmt.Fprintf(out, "%s %s\n", chain, address)
					printTable(out, []string{"Asset", "Amount", "Value"}, assetRows(perAccount[address].Assets, converter.Format))
				}
				fmt.Fprintf(out, "%s total: %s\n", chain, converter.Format(app.Store.ChainTotal(chain)))
			}

			for _, location := range exchanges {
				if err := app.Balances.FetchExchangeBalances(ctx, location, ignoreCache); err != nil {
					return err
				}
				balances := app.Store.ExchangeBalances(location)
				fmt.Fprintln(out, location)
				printTable(out, []string{"Asset", "Amount", "Value"}, assetRows(balances, converter.Format))
				fmt.Fprintf(out, "%s total: %s\n", location, converter.Format(sumValue(balances)))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&ignoreCache, "ignore-cache", false, "Skip the backend's balance cache")
	cmd.Flags().StringSliceVar(&chains, "chain", nil, "Query the balances of a chain (repeatable)")
	cmd.Flags().StringSliceVar(&exchanges, "exchange", nil, "Query the balances of an exchange location (repeatable)")
	return cmd
}

func totalRows(result models.BalanceResult, format func(decimal.Decimal) string) [][]string {
	balances := make(map[string]models.Balance, len(result.Assets))
	for asset, entry := range result.Assets {
		balances[asset] = models.Balance{Amount: entry.Amount, UsdValue: entry.UsdValue}
	}
	return assetRows(balances, format)
}
