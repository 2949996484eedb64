package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/emoji"
)

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := requireSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if getOutputFormat() == "json" {
				data, err := json.MarshalIndent(map[string]interface{}{
					"signed_in":  session.SignedIn(),
					"user_id":    session.UserID,
					"email":      session.Email,
					"has_token":  session.Token != "",
					"expires_at": session.ExpiresAt,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if !session.SignedIn() {
				if session.UserID != "" {
					fmt.Fprintf(out, "%s Session for %s expired at %s\n", emoji.GetEmoji("lock"),
						session.UserID, session.ExpiresAt.Format(time.RFC3339))
				} else {
					fmt.Fprintf(out, "%s Signed out\n", emoji.GetEmoji("lock"))
				}
				return nil
			}

			fmt.Fprintf(out, "%s %s\n", emoji.GetEmoji("user"), session.UserID)
			if session.Email != "" {
				fmt.Fprintf(out, "   Email: %s\n", session.Email)
			}
			source := "user id"
			if session.Token != "" {
				source = "session token"
			}
			fmt.Fprintf(out, "   Signed in with: %s\n", source)
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "   Expires: %s\n", session.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(GetGlobalConfig(), nil)
			if err != nil {
				return err
			}

			start := time.Now()
			msg, err := client.Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend at %s is not reachable: %w", client.BaseURL(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is up (%s)\n", emoji.GetEmoji("success"),
				client.BaseURL(), time.Since(start).Round(time.Millisecond))
			if msg.Message != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", msg.Message)
			}
			return nil
		},
	}
}
