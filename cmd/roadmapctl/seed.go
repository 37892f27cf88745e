package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/seed"
)

var seedFixturePath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog fixtures into the database",
	Long: `Upserts the market catalog — companies, skill demands, and curated
learning resources — from a YAML fixture. Rows are keyed on their natural
unique column, so re-running never duplicates data. Without --fixture the
embedded Algeria market fixture is used.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFixturePath, "fixture", "", "path to a fixture YAML file (default: embedded fixture)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	defer app.Shutdown(ctx)

	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	path := seedFixturePath
	if path == "" {
		path = cfg.Seed.FixtureFile
	}

	stats, err := seed.NewFixtureSeeder(store, path).Run(ctx)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
