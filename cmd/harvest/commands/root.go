package commands

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"auction-harvester/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest collects BOE auctions into the local store and reports on past runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
		slog.SetDefault(config.NewLogger(os.Stderr))

		db, err := config.OpenDB(config.DatabaseDriver())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := config.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		config.DB = db
		return nil
	},
	SilenceUsage: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
