package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse - CoverGrid marketing operations backend",
	Long: `Pulse serves the CoverGrid marketing dashboard: it proxies the content
spreadsheet, keeps dashboard metrics fresh, and fronts the AI assistant.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
