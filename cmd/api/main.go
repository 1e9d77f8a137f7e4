package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "foodcatalog/api/swagger" // swagger docs
	"foodcatalog/pkg/config"
	"foodcatalog/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// @title           Food Catalog API
// @version         1.0
// @description     Food product catalog with role based accounts: producers manage products, administrators manage users.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foodcatalog",
	Short: "Food catalog backend",
	Long: `Food catalog backend. Without a subcommand it starts the HTTP server.

	foodcatalog serve
	foodcatalog migrate up
	foodcatalog seed`,
	SilenceUsage: true,
	RunE:         runServe,
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	return cfg, log, nil
}
