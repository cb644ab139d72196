package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"twcrawler/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "twcrawler [seed-id]",
	Short: "Breadth-first crawler for the Twitter follower graph",
	Long: `twcrawler walks the Twitter follower graph breadth first, starting from one
account id. For every id it expands it lists all followers, keeps those with
fewer than 400 followers of their own, writes one line to the output file and
queues the survivors.

Features:
  - OAuth1 credentials kept in the system keychain or an encrypted file
  - Automatic 15 minute cooldown whenever the API rate limit is hit
  - Resumable crawls through a frontier checkpoint
  - Optional prometheus metrics and desktop notifications

Running twcrawler without a command starts a crawl.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version

		// Quiet keeps the terminal for crawl messages only
		if quiet && !cmd.Flags().Changed("log-level") {
			logLevel = "error"
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.twcrawler.yaml or $XDG_CONFIG_HOME/twcrawler/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only crawl messages, no progress or summary")

	rootCmd.SetVersionTemplate(`twcrawler {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags that override configuration
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}
