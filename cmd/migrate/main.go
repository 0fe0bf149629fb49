package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"upgradify/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the upgradify profile schema",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		return nil
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.RunMigrations(databaseURL); err != nil {
			return err
		}
		fmt.Println("✅ Migrations applied")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default one step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive number, got %q", args[0])
			}
			steps = n
		}

		m, err := database.NewMigrator(databaseURL)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		fmt.Printf("✅ Rolled back %d migration(s)\n", steps)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := database.NewMigrator(databaseURL)
		if err != nil {
			return err
		}
		defer m.Close()

		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read version: %w", err)
		}
		fmt.Printf("Version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to $DATABASE_URL)")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
