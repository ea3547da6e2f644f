package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bull/repo-ingest/internal/repo"
)

func newRunCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "run owner/name",
		Short: "Ingest one repository",
		Long: `Replaces the repository's collection with freshly embedded chunks.

This command:
1. Walks the repository through the GitHub contents API
2. Fetches every eligible source file and splits it into chunks
3. Embeds the chunks in batches
4. Stores them in the collection named owner_name

The token is read from --token or GITHUB_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := repo.ParseCoordinate(args[0])
			if err != nil {
				return err
			}
			if token == "" {
				token = os.Getenv("GITHUB_TOKEN")
			}
			if token == "" {
				return errors.New("GitHub access token is required (--token or GITHUB_TOKEN)")
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			outcome := a.pipeline.Ingest(ctx, coord, token)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcome); err != nil {
				return err
			}
			if !outcome.Success {
				return fmt.Errorf("ingestion of %s failed: %s", coord, outcome.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub access token (default $GITHUB_TOKEN)")
	return cmd
}
