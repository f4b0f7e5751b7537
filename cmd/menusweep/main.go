package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/menusweep/internal/config"
)

var version = "dev"

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	loader := &config.Loader{ConfigPath: config.DefaultConfigPath}
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "menusweep",
		Short: "Walk every menu of a web application and scan each screen for sensitive data",
		Long: `menusweep logs into a web application, opens every side menu, top menu
and left navigation entry in turn, presses the search button on each
screen and scans the page text for registration numbers.

Example:
  menusweep scan --url "http://intranet.local/app" -u auditor -p secret`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("menusweep version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to menusweep.yml (optional)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			loader.ConfigPath = configPath
		}
	}

	rootCmd.AddCommand(
		newScanCmd(loader),
		newPatternsCmd(loader),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "menusweep version %s\n", version)
		},
	}
}
