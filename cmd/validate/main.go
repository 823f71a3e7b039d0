package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/config"
	"github.com/oggyb/imperfect/internal/db"
	"github.com/oggyb/imperfect/internal/logger"
	"github.com/oggyb/imperfect/internal/repository"
	"github.com/oggyb/imperfect/internal/service/profile"
)

var rootCmd = &cobra.Command{
	Use:   "validate",
	Short: "Mark every unvalidated profile as validated",
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg := config.New()
		logger.InitFromConfig(cfg)
		defer logger.Close()

		database, err := db.NewDB(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to init db: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		if dryRun {
			pending, err := repository.NewUserRepository(database).ListUnvalidatedUsers(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s %d profiles waiting for validation\n", yellow("•"), len(pending))
			for _, u := range pending {
				fmt.Printf("  %s (%s)\n", u.Name, u.ID)
			}
			return
		}

		svc := profile.NewService(&app.AppContext{Config: cfg, DB: database, Logger: logger.L()})
		validated, err := svc.ValidatePendingUsers(ctx)
		for _, u := range validated {
			fmt.Printf("%s Validated: %s\n", green("✓"), u.Name)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(validated) == 0 {
			fmt.Printf("%s All profiles are already validated\n", green("✓"))
		}
	},
}

func init() {
	rootCmd.Flags().Bool("dry-run", false, "list pending profiles without changing them")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
