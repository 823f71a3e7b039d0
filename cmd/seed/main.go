package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database and load demo profiles",
	Long: `Deletes every user, defect, photo, like and match, then loads the demo
profiles. Random extra profiles can be added on top.

Examples:
  # Demo profiles only
  seed

  # Demo profiles plus 50 random ones
  seed --extra 50`,
	Run: func(cmd *cobra.Command, args []string) {
		extra, _ := cmd.Flags().GetInt("extra")
		if extra < 0 {
			fmt.Fprintf(os.Stderr, "Error: --extra must not be negative\n")
			os.Exit(1)
		}

		cfg := config.New()
		database, err := db.NewDB(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to init db: %v\n", err)
			os.Exit(1)
		}

		if err := db.SeedTestData(database, extra); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to seed: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Seeding completed.\n", green("✓"))
	},
}

func init() {
	rootCmd.Flags().IntP("extra", "n", 0, "number of random profiles to add")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
