package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/services"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}

	get := &cobra.Command{
		Use:   "get [key...]",
		Short: "Show the general settings",
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			settings, err := app.Settings.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			values, err := toMap(settings)
			if err != nil {
				return err
			}
			// the frontend blob is shown by the frontend subcommand
			delete(values, "frontend_settings")
			return printValues(cmd, values, args, strcase.ToSnake)
		}),
	}

	set := &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change general settings",
		Long:  "Keys may be given in camelCase or snake_case. Values are parsed as JSON when possible.",
		Args:  cobra.MinimumNArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			changes, err := parseAssignments(args)
			if err != nil {
				return err
			}
			if _, err := app.Settings.Update(cmd.Context(), changes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d setting(s)\n", len(changes))
			return nil
		}),
	}

	frontend := &cobra.Command{
		Use:   "frontend [key=value...]",
		Short: "Show or change the frontend settings",
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			if len(args) == 0 {
				return printValues(cmd, app.Store.FrontendSettings(), nil, strcase.ToLowerCamel)
			}
			changes, err := parseAssignments(args)
			if err != nil {
				return err
			}
			merged, err := app.Settings.UpdateFrontend(cmd.Context(), changes)
			if err != nil {
				return err
			}
			return printValues(cmd, merged, nil, strcase.ToLowerCamel)
		}),
	}

	cmd.AddCommand(get, set, frontend)
	return cmd
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return values, nil
}

// printValues prints the requested keys, or every key when none is given.
func printValues(cmd *cobra.Command, values map[string]any, keys []string, normalize func(string) string) error {
	if len(keys) == 0 {
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		value, ok := values[normalize(key)]
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		rows = append(rows, []string{normalize(key), string(encoded)})
	}
	printTable(cmd.OutOrStdout(), []string{"Setting", "Value"}, rows)
	return nil
}
