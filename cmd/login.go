package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log the booth in to the API",
	Long: `Authenticates with email and password and stores the session token.
The password can also be given in the BOOTH_PASSWORD environment variable.

Without --email, the command tries auto-login with BOOTH_DEVICE_KEY and then
the stored session, and reports which account the booth uses.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		k, err := openKiosk(context.Background(), cfg, true)
		if err != nil {
			return err
		}
		defer k.Close()

		if err := k.Logout(); err != nil {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (defaults to BOOTH_PASSWORD)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	email := mustGetString(cmd, "email")
	password := mustGetString(cmd, "password")
	if password == "" {
		password = os.Getenv("BOOTH_PASSWORD")
	}

	ctx := context.Background()
	k, err := openKiosk(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer k.Close()

	if email == "" {
		creds, err := k.Resolver.Resolve(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%s)\n", creds.Name, creds.Email)
		return nil
	}

	if password == "" {
		return errors.New("password is required (use --password or BOOTH_PASSWORD)")
	}

	creds, err := k.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", creds.Name, creds.Email)
	return nil
}
