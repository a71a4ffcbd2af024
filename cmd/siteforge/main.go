// Package main provides the entry point for the siteforge CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "siteforge",
	Short: "Self-healing static site builder",
	Long:  "Siteforge renders static landing pages, audits the rendered layout in a headless browser, and automatically repairs overflow defects through a bounded escalation of fixes.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
