package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seatwise-systems/seatwise/internal/cli/client"
	"github.com/seatwise-systems/seatwise/internal/cli/output"
	"github.com/seatwise-systems/seatwise/internal/models"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Manage accounts and authentication with the registry",
}

var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		apiURL := resolveAPIURL(cmd)

		api := client.New(apiURL, "")
		user, err := api.CreateAccount(&models.CreateAccountRequest{
			Username: username,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}

		output.Success("Account created: %s (%s)", user.Username, user.ID)
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to SeatWise",
	Long:  "Authenticate with the registry and save credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		apiURL := resolveAPIURL(cmd)

		api := client.New(apiURL, "")
		resp, err := api.Login(username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		profile, _ := cmd.Flags().GetString("profile")
		if err := cfg.SaveProfile(profile, apiURL, resp.AccessToken, username); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		output.Success("Successfully logged in as %s", username)
		output.Info("Profile '%s' saved to ~/.swctl/config.yaml", profile)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from SeatWise",
	Long:  "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")

		if err := cfg.RemoveProfile(profile); err != nil {
			return err
		}

		output.Success("Successfully logged out from profile '%s'", profile)
		return nil
	},
}

// resolveAPIURL prefers the flag, then the saved profile, then the default.
func resolveAPIURL(cmd *cobra.Command) string {
	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" && cmd.Flags().Changed("api-url") {
		return apiURL
	}
	profile, _ := cmd.Flags().GetString("profile")
	return cfg.APIURL(profile)
}

// authedClient builds a client from the saved profile token.
func authedClient(cmd *cobra.Command) (*client.Client, error) {
	profile, _ := cmd.Flags().GetString("profile")
	p, err := cfg.GetProfile(profile)
	if err != nil {
		return nil, fmt.Errorf("not logged in: %w", err)
	}
	return client.New(p.APIURL, p.AccessToken), nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSignupCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)

	for _, c := range []*cobra.Command{authSignupCmd, authLoginCmd} {
		c.Flags().StringP("username", "u", "", "Username")
		c.Flags().StringP("password", "p", "", "Password")
		c.Flags().String("api-url", "", "Registry API URL (default from config)")
		c.MarkFlagRequired("username")
		c.MarkFlagRequired("password")
	}
	authSignupCmd.Flags().StringP("email", "e", "", "Email address")
	authSignupCmd.Flags().String("role", "", "Account role (user, provider)")
	authSignupCmd.MarkFlagRequired("email")
}
