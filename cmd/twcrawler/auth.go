package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"twcrawler/pkg/auth"
	"twcrawler/pkg/config"
	"twcrawler/pkg/logger"
	"twcrawler/pkg/twitter"
	"twcrawler/pkg/ui"
)

var (
	verifyLogin bool
	logoutAll   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter API credentials.

Each profile holds the four OAuth1 secrets of one app and user. Profiles are
stored in the system keychain when available, otherwise in an encrypted file
under the XDG config directory. Environment variables always take precedence
when no profile is named.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store OAuth1 credentials under a profile name",
	Long: `Store OAuth1 credentials securely.

You will be prompted for the consumer key, consumer secret, access token and
access token secret. Input is hidden. The profile name defaults to "default".`,
	Example: `  # Store the default profile
  twcrawler auth login

  # Store a second profile and check it against the API
  twcrawler auth login research --verify`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Example: `  # Remove the default profile
  twcrawler auth logout

  # Remove every profile
  twcrawler auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked secrets",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "check the credentials against the API before storing them")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove all stored profiles")
}

func runLogin(cmd *cobra.Command, args []string) {
	console := ui.NewConsole(os.Stdout, ui.ConsoleOptions{Color: !noColor && ui.IsTerminal(os.Stdout)})

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowKeysGuide(os.Stdout)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Profile '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\nEnter the four secrets (input is hidden):")
	creds := &auth.Credentials{Name: name}
	fields := []struct {
		label string
		dst   *string
	}{
		{"API key (consumer key)", &creds.ConsumerKey},
		{"API key secret (consumer secret)", &creds.ConsumerSecret},
		{"Access token", &creds.AccessToken},
		{"Access token secret", &creds.AccessSecret},
	}
	for _, f := range fields {
		fmt.Printf("%s: ", f.label)
		value, err := readPassword(reader)
		if err != nil {
			console.Error("Failed to read "+f.label, err)
			os.Exit(1)
		}
		*f.dst = value
	}

	if err := creds.Validate(); err != nil {
		console.Error("Incomplete credentials", err)
		os.Exit(1)
	}

	if verifyLogin {
		user, err := verifyCredentials(cmd, creds)
		if err != nil {
			console.Error("Credentials were rejected", err)
			os.Exit(1)
		}
		console.Success(fmt.Sprintf("Authenticated as @%s (%d)", user.ScreenName, user.ID))
	}

	if err := manager.Store(creds); err != nil {
		console.Error("Failed to store credentials", err)
		os.Exit(1)
	}

	sanitized := auth.Sanitize(creds)
	console.Success("Profile saved: " + name)
	fmt.Printf("   Consumer key: %s\n", sanitized.ConsumerKey)
	fmt.Printf("   Access token: %s\n", sanitized.AccessToken)
	if name != auth.DefaultProfile {
		fmt.Printf("\nUse it with:\n  twcrawler crawl <seed-id> --account %s\n", name)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	console := ui.NewConsole(os.Stdout, ui.ConsoleOptions{Color: !noColor && ui.IsTerminal(os.Stdout)})

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	if logoutAll {
		fmt.Print("Remove ALL profiles? This cannot be undone! (yes/N): ")
		confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			console.Error("Failed to remove profiles", err)
			os.Exit(1)
		}
		console.Success("All profiles removed")
		return
	}

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		console.Error("Failed to remove profile", err)
		os.Exit(1)
	}
	console.Success("Profile removed: " + name)
}

func runList(cmd *cobra.Command, args []string) {
	console := ui.NewConsole(os.Stdout, ui.ConsoleOptions{Color: !noColor && ui.IsTerminal(os.Stdout)})

	manager, err := auth.NewManager()
	if err != nil {
		console.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	profiles, err := manager.List()
	if err != nil {
		console.Error("Failed to list profiles", err)
		os.Exit(1)
	}

	if len(profiles) == 0 {
		console.Info("No stored profiles", "use 'twcrawler auth login' to add one")
		return
	}

	for i, creds := range profiles {
		sanitized := auth.Sanitize(creds)
		fmt.Printf("%d. %s\n", i+1, sanitized.Name)
		fmt.Printf("   Consumer key:  %s\n", sanitized.ConsumerKey)
		fmt.Printf("   Access token:  %s\n", sanitized.AccessToken)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// verifyCredentials calls account/verify_credentials with creds against the
// configured API base URL
func verifyCredentials(cmd *cobra.Command, creds *auth.Credentials) (*twitter.User, error) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return nil, err
	}

	client, err := twitter.NewClient(creds.OAuth(), twitter.Options{
		BaseURL:   cfg.Twitter.BaseURL,
		Timeout:   cfg.Twitter.Timeout,
		UserAgent: cfg.Twitter.UserAgent,
		Logger:    logger.NewNopLogger(),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.VerifyCredentials(ctx)
}

// readPassword reads a secret from stdin without echoing when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
