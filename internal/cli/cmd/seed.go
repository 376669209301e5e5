package cmd

import (
	"github.com/spf13/cobra"

	"github.com/seatwise-systems/seatwise/internal/cli/output"
	"github.com/seatwise-systems/seatwise/internal/cli/seeder"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo accounts, events and registrations",
	Long: `Generate a demo data set against a running registry.

Creates a provider with a handful of capacity-limited events, a pool of
user accounts, and submits registrations for them. With oversubscription
enabled every user races for every event, so some registrations are
rejected once capacities fill.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := seeder.DefaultConfig()
		cfg.APIURL = resolveAPIURL(cmd)
		cfg.Events, _ = cmd.Flags().GetInt("events")
		cfg.Users, _ = cmd.Flags().GetInt("users")
		cfg.MinCapacity, _ = cmd.Flags().GetInt("min-capacity")
		cfg.MaxCapacity, _ = cmd.Flags().GetInt("max-capacity")
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
		oversub, _ := cmd.Flags().GetBool("oversubscribe")
		cfg.Oversubscribe = oversub

		output.Info("Seeding %d events and %d users against %s", cfg.Events, cfg.Users, cfg.APIURL)
		result, err := seeder.Run(cfg)
		if err != nil {
			return err
		}

		output.Success("Seeded provider %s with %d events", result.Provider, len(result.Events))
		output.Success("Created %d users, submitted %d registrations", result.Users, result.Submissions)
		if result.Failures > 0 {
			output.Warn("%d operations failed", result.Failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	defaults := seeder.DefaultConfig()
	seedCmd.Flags().Int("events", defaults.Events, "Number of events to create")
	seedCmd.Flags().Int("users", defaults.Users, "Number of user accounts to create")
	seedCmd.Flags().Int("min-capacity", defaults.MinCapacity, "Minimum event capacity")
	seedCmd.Flags().Int("max-capacity", defaults.MaxCapacity, "Maximum event capacity")
	seedCmd.Flags().Int64("seed", 0, "Random seed for reproducible data")
	seedCmd.Flags().Bool("oversubscribe", defaults.Oversubscribe, "Register every user for every event")
	seedCmd.Flags().String("api-url", "", "Registry API URL (default from config)")
}
