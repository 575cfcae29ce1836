package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"modkit/internal/config"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage release API credentials",
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Store a GitHub token for release queries",
	Long: `Store a personal access token used when querying the release API.
Anonymous queries work but are rate-limited; a token raises the limit.
The token is read without echo and saved to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthToken()
	},
}

func init() {
	authCmd.AddCommand(authTokenCmd)
}

func runAuthToken() error {
	fmt.Print("GitHub token (input hidden): ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	fmt.Println() // New line after hidden input

	token := string(tokenBytes)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.GitHubToken = token
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("✅ Token saved")
	return nil
}
