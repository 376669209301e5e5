package cmd

import (
	"github.com/spf13/cobra"

	"github.com/seatwise-systems/seatwise/internal/cli/output"
)

var registerCmd = &cobra.Command{
	Use:   "register <event-id>",
	Short: "Submit a registration for an event",
	Long: `Submit a registration attempt for an event.

The command returns as soon as the attempt is accepted for processing.
The accept/reject outcome is decided asynchronously and delivered through
the configured notification channel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := authedClient(cmd)
		if err != nil {
			return err
		}

		resp, err := api.Register(args[0])
		if err != nil {
			return err
		}

		if format, _ := cmd.Flags().GetString("output"); format == "json" {
			return output.JSON(resp)
		}

		output.Success("Registration submitted for event %s", resp.EventID)
		output.Info("Correlation ID: %s", resp.CorrelationID)
		output.Info("You will be notified once the registration is decided.")
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister <event-id>",
	Short: "Cancel a committed registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := authedClient(cmd)
		if err != nil {
			return err
		}

		if err := api.Unregister(args[0]); err != nil {
			return err
		}

		output.Success("Registration for event %s cancelled", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
}
