// Package main provides the entry point for the TaxMate HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taxmate",
	Short: "TaxMate HTTP API Server",
	Long:  "TaxMate stores uploaded tax documents and extracts, validates and compliance-checks their contents through an asynchronous processing workflow, exposed via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
