package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Run the full deployment bootstrap",
	Long: `Runs the deployment bootstrap against the configured environment:
collect static assets, apply schema migrations, provision the superuser
account (when CREATE_SUPERUSER is "True"), and seed the market catalog
(when enabled). Phases run strictly in order and the first failure aborts
everything after it. Prints the phase-by-phase result as JSON and exits
non-zero if any phase failed.`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Bootstrap.Timeout)
	defer cancel()
	defer app.Shutdown(context.Background())

	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	result, err := app.NewRunner(store).Run(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if result.Status != bootstrap.StatusOK {
		return errors.New("bootstrap failed: one or more phases did not complete")
	}
	return nil
}
