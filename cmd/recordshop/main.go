package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/recordshop/config"
	"github.com/shashiranjanraj/recordshop/internal/app"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// shop is built before every command and closed after it.
var (
	shop     *app.App
	teardown []func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "recordshop",
	Short:         "Record store client",
	Long:          "recordshop browses the record catalog, manages your cart and places orders against the store API.",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		ctx := cmd.Context()

		shutdown, err := telemetry.Setup(ctx, "recordshop", config.OTelExporter())
		if err != nil {
			return err
		}
		teardown = append(teardown, shutdown)

		if uri := config.LogMongoURI(); uri != "" {
			closeMongo, err := logger.AttachMongo(uri)
			if err != nil {
				logger.Warn("mongo log sink unavailable", "error", err)
			}
			teardown = append(teardown, func(context.Context) error { closeMongo(); return nil })
		}

		a, err := app.New(ctx, app.OptionsFromConfig())
		if err != nil {
			return err
		}
		shop = a
		teardown = append(teardown, func(context.Context) error { return a.Close() })
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return runTeardown(context.Background())
	},
}

func runTeardown(ctx context.Context) error {
	var first error
	for i := len(teardown) - 1; i >= 0; i-- {
		if err := teardown[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	teardown = nil
	return first
}

func init() {
	// Account
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Catalog
	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(recordsCmd)

	// Cart and orders
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(cartsCmd)
	rootCmd.AddCommand(ordersCmd)

	// Admin and preferences
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(prefsCmd)

	// Live
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(watchCmd)
}
