// Command recipectl runs operator tasks against the recipe database:
// schema migration, seeding and staff promotion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pageza/recipe-site/backend/config"
	"github.com/pageza/recipe-site/backend/internal/app"
	"github.com/pageza/recipe-site/backend/internal/logging"
)

var (
	logger      *zap.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "recipectl",
	Short:         "Operator tasks for the recipe site",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(config.GetEnvironment())
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		application, err = app.New(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = logger.Sync() }()
		if application == nil {
			return nil
		}
		return application.Close()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
