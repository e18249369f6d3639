package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage account tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			tags, err := app.Tags.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			printTags(cmd, tags)
			return nil
		}),
	}

	var tag models.Tag
	register := func(c *cobra.Command) {
		c.Flags().StringVar(&tag.Description, "description", "", "Description of the tag")
		c.Flags().StringVar(&tag.BackgroundColor, "background", "ffffff", "Background color as 6 hex digits")
		c.Flags().StringVar(&tag.ForegroundColor, "foreground", "000000", "Foreground color as 6 hex digits")
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			tag.Name = args[0]
			tags, err := app.Tags.Add(cmd.Context(), tag)
			if err != nil {
				return err
			}
			printTags(cmd, tags)
			return nil
		}),
	}
	register(add)

	edit := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change a tag",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			tag.Name = args[0]
			tags, err := app.Tags.Edit(cmd.Context(), tag)
			if err != nil {
				return err
			}
			printTags(cmd, tags)
			return nil
		}),
	}
	register(edit)

	remove := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"remove"},
		Short:   "Delete a tag",
		Args:    cobra.ExactArgs(1),
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, args []string) error {
			if _, err := app.Tags.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, add, edit, remove)
	return cmd
}

func printTags(cmd *cobra.Command, tags models.Tags) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		tag := tags[name]
		rows = append(rows, []string{tag.Name, tag.Description, "#" + tag.BackgroundColor, "#" + tag.ForegroundColor})
	}
	printTable(cmd.OutOrStdout(), []string{"Name", "Description", "Background", "Foreground"}, rows)
}
