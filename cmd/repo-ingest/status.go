package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bull/repo-ingest/internal/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status owner/name",
		Short: "Show whether a repository has been ingested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := repo.ParseCoordinate(args[0])
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := a.pipeline.CollectionStatus(cmd.Context(), coord)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Repository: %s\n", coord)
			fmt.Fprintf(out, "Collection: %s\n", info.Name)
			if !info.Exists {
				fmt.Fprintln(out, "Status:     not ingested")
				return nil
			}
			fmt.Fprintln(out, "Status:     ingested")
			fmt.Fprintf(out, "Chunks:     %d\n", info.PointsCount)
			return nil
		},
	}
}
