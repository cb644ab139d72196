package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"twcrawler/pkg/config"
	"twcrawler/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage twcrawler configuration files.

Configuration is layered, highest priority first:
  - Command line flags
  - Environment variables (TWCRAWLER_*, also read from .env files)
  - Configuration file
  - Default values

Credentials never live in the configuration file; see 'twcrawler auth'.`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file holding the defaults",
	Long: `Write a configuration file holding every option at its default value.

The file goes to $XDG_CONFIG_HOME/twcrawler/config.yaml unless a different
path is given with --config.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

This command checks YAML syntax, value ranges and that the output and log
file directories can be created.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func newPlainConsole() *ui.Console {
	return ui.NewConsole(os.Stdout, ui.ConsoleOptions{Color: !noColor && ui.IsTerminal(os.Stdout)})
}

func runConfigInit(cmd *cobra.Command, args []string) {
	console := newPlainConsole()

	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		console.Error("Configuration file already exists: "+configPath, nil)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		console.Error("Failed to create configuration file", err)
		os.Exit(1)
	}

	console.Success("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your API keys with 'twcrawler auth login'")
	fmt.Println("2. Run 'twcrawler config validate' to check the configuration")
	fmt.Println("3. Start crawling with 'twcrawler crawl <seed-id>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	console := newPlainConsole()

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		console.Error("Failed to load configuration", err)
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		console.Error("Failed to format configuration", err)
		os.Exit(1)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Printf("2. Environment variables (%s*)\n", config.EnvPrefix)
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in ./.twcrawler.yaml and " + config.DefaultConfigPath() + ")")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	console := newPlainConsole()

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		console.Error("Configuration validation failed", err)
		os.Exit(1)
	}

	var problems []string
	if dir := filepath.Dir(cfg.Crawl.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		console.Error("Configuration has errors:", nil)
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if cfg.Crawl.Cooldown < config.DefaultConfig().Crawl.Cooldown {
		console.Warning(fmt.Sprintf("Cooldown %s is shorter than the provider's 15 minute window", cfg.Crawl.Cooldown))
	}

	console.Success("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output file: %s\n", cfg.Crawl.OutputFile)
	fmt.Printf("  Cooldown: %s\n", cfg.Crawl.Cooldown)
	if cfg.Crawl.MaxExpansions > 0 {
		fmt.Printf("  Max expansions: %d\n", cfg.Crawl.MaxExpansions)
	}
	fmt.Printf("  Checkpoints: %t\n", cfg.Crawl.Checkpoint)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
