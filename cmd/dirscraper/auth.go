package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dirscraper/pkg/auth"
	"dirscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage stored API credentials for the pipeline.

Credentials are grouped into named profiles and stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

A profile holds the search API key pair and the scraping API token.
Multiple profiles let you rotate between quota pools with --profile.`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store API credentials securely",
	Long: `Store API credentials securely in the system keychain or encrypted file.

You will be prompted for:
  - Profile name (if not provided; "default" is used for a single pool)
  - Search API key and engine ID
  - Scraping API token

Values are hidden as you type. Press Enter to skip a credential you
don't have; at least one API must be configured.`,
	Example: `  # Interactive login
  dirscraper auth login

  # Store a second quota pool
  dirscraper auth login backup`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential profiles",
	Long:  `List all stored credential profiles with secrets masked.`,
	Run:   runAuthList,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove <profile>",
	Short: "Remove a stored credential profile",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	name := "default"
	if len(args) > 0 {
		name = args[0]
	} else {
		fmt.Print("Profile name [default]: ")
		input, _ := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(input); trimmed != "" {
			name = trimmed
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Profile '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\nEnter credentials (hidden as you type, Enter to skip):")

	fmt.Print("Search API key: ")
	searchKey, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read input", err.Error())
		os.Exit(1)
	}

	engineID := ""
	if searchKey != "" {
		fmt.Print("Search engine ID: ")
		engineID, err = readSecret()
		if err != nil {
			ui.PrintError("Failed to read input", err.Error())
			os.Exit(1)
		}
		if engineID == "" {
			ui.PrintError("Search engine ID is required with a search API key")
			os.Exit(1)
		}
	}

	fmt.Print("Scraping API token: ")
	scrapeToken, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read input", err.Error())
		os.Exit(1)
	}

	if searchKey == "" && scrapeToken == "" {
		ui.PrintError("No credentials entered")
		os.Exit(1)
	}

	p := &auth.Profile{
		Name:           name,
		SearchAPIKey:   searchKey,
		SearchEngineID: engineID,
		ScrapeToken:    scrapeToken,
	}

	if err := manager.Store(p); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Profile saved: %s", name))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	profiles, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list profiles", err.Error())
		os.Exit(1)
	}

	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'dirscraper auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()

	for i, p := range profiles {
		sanitized := auth.SanitizeProfile(p)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Name)
		if sanitized.SearchAPIKey != "" {
			fmt.Printf("   Search API key: %s\n", sanitized.SearchAPIKey)
			fmt.Printf("   Search engine ID: %s\n", sanitized.SearchEngineID)
		}
		if sanitized.ScrapeToken != "" {
			fmt.Printf("   Scraping API token: %s\n", sanitized.ScrapeToken)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := args[0]
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove profile", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Profile removed: " + name)
}

// readSecret reads a value from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after hidden input
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
