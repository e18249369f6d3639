package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/services"
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users known to the backend",
		Args:  cobra.NoArgs,
		RunE: withSession(sessionOptions{}, func(cmd *cobra.Command, app *services.App, _ []string) error {
			names, loggedIn, err := app.Session.Users(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				status := string(models.StatusLoggedOut)
				if name == loggedIn {
					status = string(models.StatusLoggedIn)
				}
				rows = append(rows, []string{name, status})
			}
			printTable(cmd.OutOrStdout(), []string{"User", "Status"}, rows)
			return nil
		}),
	}
}

func newLoginCmd() *cobra.Command {
	var (
		syncApproval     string
		resumeFromBackup bool
	)

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in a user and unlock its database",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(sessionOptions{}, func(cmd *cobra.Command, app *services.App, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("username", args[0]); err != nil {
					return err
				}
			}
			credentials, ok := credentialsFromFlags(cmd)
			if !ok {
				return errors.New("a username and a password are required")
			}
			credentials.SyncApproval = models.SyncApproval(syncApproval)
			credentials.ResumeFromBackup = resumeFromBackup

			err := app.Session.Login(cmd.Context(), credentials)
			var conflict *client.SyncConflictError
			if errors.As(err, &conflict) {
				printSyncConflict(cmd, conflict)
				return errors.New("login needs a sync decision: rerun with --sync-approval yes to use the remote database or no to keep the local one")
			}
			if err != nil {
				return err
			}

			session := app.Store.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (premium: %t)\n", session.Username, session.Premium)
			return nil
		}),
	}

	cmd.Flags().StringVar(&syncApproval, "sync-approval", string(models.SyncApprovalUnknown), "Answer to a premium sync conflict (unknown, yes, no)")
	cmd.Flags().BoolVar(&resumeFromBackup, "resume-from-backup", false, "Resume from a database backup if the database is broken")
	return cmd
}

func printSyncConflict(cmd *cobra.Command, conflict *client.SyncConflictError) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, conflict.Message)
	payload := conflict.Payload
	printTable(out, []string{"", "Size", "Last modified"}, [][]string{
		{"Local", payload.LocalSize, formatTimestamp(payload.LocalLastModified)},
		{"Remote", payload.RemoteSize, formatTimestamp(payload.RemoteLastModified)},
	})
}

func formatTimestamp(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out the current user",
		Args:  cobra.NoArgs,
		RunE: withSession(sessionOptions{}, func(cmd *cobra.Command, app *services.App, _ []string) error {
			ctx := cmd.Context()
			username, err := app.Session.Resume(ctx)
			if err != nil {
				return err
			}
			if err := app.Session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", username)
			return nil
		}),
	}
}
