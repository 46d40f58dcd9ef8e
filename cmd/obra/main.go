package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"obra/internal/cli"
	"obra/internal/config"
	"obra/internal/core"
	"obra/internal/log"
	"obra/internal/services"
	"obra/internal/storage"
)

var forceRebuild bool

var rootCmd = &cobra.Command{
	Use:   "obra",
	Short: "Expense ledger for construction projects",
	Long: `obra keeps the books for a single construction project: schema setup,
default categories and aggregate reports over either an embedded SQLite
file or a Postgres server selected via DATABASE_URL.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the schema and seed defaults",
	RunE:  runInit,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Drop all tables and recreate the schema from scratch",
	RunE:  runRebuild,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert default categories and project if none exist",
	RunE:  runSeed,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend, schema and ledger summary",
	RunE:  runStatus,
}

func init() {
	rebuildCmd.Flags().BoolVar(&forceRebuild, "force", false, "Confirm destruction of all existing data")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statusCmd)
}

// bootstrap wires logging, config and the store for every subcommand.
func bootstrap(ctx context.Context) (*log.Logger, *storage.Provider, *storage.Store) {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	provider, store := cli.OpenStore(ctx, cfg, logger)
	return logger, provider, store
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger, provider, store := bootstrap(ctx)
	defer provider.Close()

	if err := storage.NewSchemaManager(store, logger).Ensure(ctx); err != nil {
		return err
	}
	if err := storage.NewSeeder(store, logger).SeedIfEmpty(ctx); err != nil {
		return err
	}
	fmt.Println("database initialized")
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	if !forceRebuild {
		return fmt.Errorf("rebuild drops all data; rerun with --force to confirm")
	}

	ctx := cmd.Context()
	logger, provider, store := bootstrap(ctx)
	defer provider.Close()

	if err := storage.NewSchemaManager(store, logger).Rebuild(ctx); err != nil {
		return err
	}
	if err := storage.NewSeeder(store, logger).SeedIfEmpty(ctx); err != nil {
		return err
	}
	fmt.Println("database rebuilt")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger, provider, store := bootstrap(ctx)
	defer provider.Close()

	if err := storage.NewSeeder(store, logger).SeedIfEmpty(ctx); err != nil {
		return err
	}
	fmt.Println("seed complete")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger, provider, store := bootstrap(ctx)
	defer provider.Close()

	kind, _ := provider.Kind()
	fmt.Printf("backend: %s\n", kind)

	schema := storage.NewSchemaManager(store, logger)
	ready, err := schema.TableExists(ctx, "projects")
	if err != nil {
		return err
	}
	if !ready {
		fmt.Println("schema: not initialized (run 'obra init')")
		return nil
	}
	fmt.Println("schema: ready")

	dash, err := services.NewReports(store, logger).Dashboard(ctx)
	if err != nil {
		return err
	}
	if !dash.Project.Configured() {
		fmt.Printf("project: %s\n", core.UnconfiguredProjectName)
		return nil
	}

	fmt.Printf("project: %s (%s a %s)\n",
		dash.Project.Name,
		core.FormatDate(dash.Project.StartDate),
		core.FormatDate(dash.Project.PlannedEnd))
	fmt.Printf("budget: %s\n", core.FormatCurrency(dash.Budget))
	fmt.Printf("spent: %s (%.1f%%)\n", core.FormatCurrency(dash.TotalSpent), dash.PercentExecuted)
	fmt.Printf("remaining: %s\n", core.FormatCurrency(dash.Remaining))
	for _, slice := range dash.PerCategory {
		if slice.Amount.Cents == 0 {
			continue
		}
		fmt.Printf("  %-30s %s (%.1f%%)\n", slice.Name, core.FormatCurrency(slice.Amount), slice.PctOfSpent)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
