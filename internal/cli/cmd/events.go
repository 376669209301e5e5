package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seatwise-systems/seatwise/internal/cli/client"
	"github.com/seatwise-systems/seatwise/internal/cli/output"
	"github.com/seatwise-systems/seatwise/internal/models"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Event catalog commands",
	Long:  "List, inspect and manage events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		api := client.New(resolveAPIURL(cmd), "")
		resp, err := api.ListEvents(limit, page)
		if err != nil {
			return err
		}

		if format, _ := cmd.Flags().GetString("output"); format == "json" {
			return output.JSON(resp)
		}

		table := output.NewTable("ID", "NAME", "LOCATION", "DATE", "CAPACITY", "OPEN")
		for _, e := range resp.Events {
			table.AddRow(e.ID, e.Name, e.Location, e.Date,
				strconv.Itoa(e.MaxCapacity), strconv.FormatBool(e.Open))
		}
		table.Render()
		output.Info("%d of %d events", len(resp.Events), resp.Total)
		return nil
	},
}

var eventsGetCmd = &cobra.Command{
	Use:   "get <event-id>",
	Short: "Show one event with its registration count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api := client.New(resolveAPIURL(cmd), "")
		event, err := api.GetEvent(args[0])
		if err != nil {
			return err
		}
		count, err := api.RegistrationCount(args[0])
		if err != nil {
			return err
		}

		if format, _ := cmd.Flags().GetString("output"); format == "json" {
			return output.JSON(map[string]interface{}{"event": event, "registrations": count})
		}

		output.Info("Name:        %s", event.Name)
		output.Info("Location:    %s", event.Location)
		output.Info("Date:        %s", event.Date)
		output.Info("Open:        %v", event.Open)
		output.Info("Registered:  %d / %d", count.Registered, count.MaxCapacity)
		return nil
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event (requires provider role)",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := authedClient(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		location, _ := cmd.Flags().GetString("location")
		date, _ := cmd.Flags().GetString("date")
		capacity, _ := cmd.Flags().GetInt("capacity")
		closed, _ := cmd.Flags().GetBool("closed")

		open := !closed
		event, err := api.CreateEvent(&models.CreateEventRequest{
			Name:        name,
			Description: description,
			Location:    location,
			Date:        date,
			MaxCapacity: capacity,
			Open:        &open,
		})
		if err != nil {
			return fmt.Errorf("create event failed: %w", err)
		}

		output.Success("Event created: %s", event.ID)
		return nil
	},
}

var eventsOpenCmd = &cobra.Command{
	Use:   "open <event-id>",
	Short: "Open an event for registration",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setOpen(cmd, args[0], true) },
}

var eventsCloseCmd = &cobra.Command{
	Use:   "close <event-id>",
	Short: "Close an event for registration",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setOpen(cmd, args[0], false) },
}

func setOpen(cmd *cobra.Command, eventID string, open bool) error {
	api, err := authedClient(cmd)
	if err != nil {
		return err
	}
	if _, err := api.UpdateEvent(eventID, &models.UpdateEventRequest{Open: &open}); err != nil {
		return err
	}
	state := "closed"
	if open {
		state = "open"
	}
	output.Success("Event %s is now %s for registration", eventID, state)
	return nil
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := authedClient(cmd)
		if err != nil {
			return err
		}
		if err := api.DeleteEvent(args[0]); err != nil {
			return err
		}
		output.Success("Event %s deleted", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsGetCmd)
	eventsCmd.AddCommand(eventsCreateCmd)
	eventsCmd.AddCommand(eventsOpenCmd)
	eventsCmd.AddCommand(eventsCloseCmd)
	eventsCmd.AddCommand(eventsDeleteCmd)

	eventsListCmd.Flags().Int("limit", 20, "Events per page")
	eventsListCmd.Flags().Int("page", 1, "Page number")
	eventsListCmd.Flags().String("api-url", "", "Registry API URL (default from config)")
	eventsGetCmd.Flags().String("api-url", "", "Registry API URL (default from config)")

	eventsCreateCmd.Flags().String("name", "", "Event name")
	eventsCreateCmd.Flags().String("description", "", "Event description")
	eventsCreateCmd.Flags().String("location", "", "Event location")
	eventsCreateCmd.Flags().String("date", "", "Event date (RFC3339)")
	eventsCreateCmd.Flags().Int("capacity", 0, "Maximum number of registrants")
	eventsCreateCmd.Flags().Bool("closed", false, "Create the event closed for registration")
	eventsCreateCmd.MarkFlagRequired("name")
	eventsCreateCmd.MarkFlagRequired("capacity")
}
