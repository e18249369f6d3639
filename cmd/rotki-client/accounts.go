package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage tracked blockchain accounts",
	}
	cmd.AddCommand(newChainsCmd(), newAccountsListCmd(), newAccountsAddCmd(), newAccountsEditCmd(), newAccountsRemoveCmd())
	return cmd
}

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List the chains supported by the backend",
		Args:  cobra.NoArgs,
		RunE: withSession(sessionOptions{}, func(cmd *cobra.Command, app *services.App, _ []string) error {
			chains, err := app.Accounts.SupportedChains(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(chains))
			for _, chain := range chains {
				rows = append(rows, []string{chain.ID, chain.Name, chain.Type, chain.NativeToken})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Type", "Native token"}, rows)
			return nil
		}),
	}
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <chain>",
		Short: "List the accounts tracked on a chain",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			accounts, err := app.Accounts.FetchAccounts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), []string{"Address", "Label", "Tags"}, accountRows(accounts))
			return nil
		}),
	}
}

func accountRows(accounts []models.Account) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		label := account.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{account.Address, label, joinOrDash(account.Tags)})
	}
	return rows
}

type accountFlags struct {
	label string
	tags  []string
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.label, "label", "", "Label of the accounts")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag of the accounts (repeatable)")
}

func (f *accountFlags) accounts(addresses []string) []models.Account {
	accounts := make([]models.Account, 0, len(addresses))
	for _, address := range addresses {
		accounts = append(accounts, models.Account{Address: address, Label: f.label, Tags: f.tags})
	}
	return accounts
}

func newAccountsAddCmd() *cobra.Command {
	var flags accountFlags
	cmd := &cobra.Command{
		Use:   "add <chain> <address>...",
		Short: "Start tracking accounts and query their balances",
		Args:  cobra.MinimumNArgs(2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			chain, addresses := args[0], args[1:]
			if err := app.Accounts.AddAccounts(cmd.Context(), chain, flags.accounts(addresses)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s account(s)\n", len(addresses), chain)
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newAccountsEditCmd() *cobra.Command {
	var flags accountFlags
	cmd := &cobra.Command{
		Use:   "edit <chain> <address>...",
		Short: "Change the label and tags of accounts",
		Args:  cobra.MinimumNArgs(2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			accounts, err := app.Accounts.EditAccounts(cmd.Context(), args[0], flags.accounts(args[1:]))
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), []string{"Address", "Label", "Tags"}, accountRows(accounts))
			return nil
		}),
	}
	flags.register(cmd)
	return cmd
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <chain> <address>...",
		Short: "Stop tracking accounts",
		Args:  cobra.MinimumNArgs(2),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			chain, addresses := args[0], args[1:]
			if err := app.Accounts.RemoveAccounts(cmd.Context(), chain, addresses); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s account(s)\n", len(addresses), chain)
			return nil
		}),
	}
}
