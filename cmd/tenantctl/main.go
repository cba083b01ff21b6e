// AngelaMos | 2026
// main.go

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Operator tooling for the tenant platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "config.yaml", "path to config file")

	rootCmd.AddCommand(
		keysCmd(),
		migrateCmd(),
		tenantCmd(),
		catalogCmd(),
		integrationCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
