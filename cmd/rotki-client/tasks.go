package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks the backend is running",
		Args:  cobra.NoArgs,
		RunE: withSession(sessionOptions{}, func(cmd *cobra.Command, app *services.App, _ []string) error {
			tasks, err := app.Client.Tasks(cmd.Context())
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), []string{"Task", "Status"}, taskRows(tasks))
			return nil
		}),
	}
}

func taskRows(tasks models.TasksResponse) [][]string {
	rows := make([][]string, 0, len(tasks.Pending)+len(tasks.Completed))
	for _, id := range tasks.Pending {
		rows = append(rows, []string{strconv.FormatInt(int64(id), 10), string(models.TaskStatusPending)})
	}
	for _, id := range tasks.Completed {
		rows = append(rows, []string{strconv.FormatInt(int64(id), 10), string(models.TaskStatusCompleted)})
	}
	return rows
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend's periodic session data",
		Args:  cobra.NoArgs,
		RunE: loggedIn(func(cmd *cobra.Command, app *services.App, _ []string) error {
			periodic, err := app.Client.Periodic(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			session := app.Store.Session()
			fmt.Fprintf(out, "User: %s (premium: %t)\n", session.Username, session.Premium)
			fmt.Fprintf(out, "Last balance save: %s\n", formatTimestamp(periodic.LastBalanceSave))
			fmt.Fprintf(out, "Last data upload: %s\n", formatTimestamp(periodic.LastDataUploadTS))
			printTable(out, []string{"Chain", "Connected nodes"}, nodeRows(periodic.ConnectedNodes))
			return nil
		}),
	}
}

func nodeRows(nodes map[string][]string) [][]string {
	chains := make([]string, 0, len(nodes))
	for chain := range nodes {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	rows := make([][]string, 0, len(chains))
	for _, chain := range chains {
		rows = append(rows, []string{chain, joinOrDash(nodes[chain])})
	}
	return rows
}
