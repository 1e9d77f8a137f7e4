package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/database"
	"foodcatalog/internal/events"
	"foodcatalog/internal/handler"
	"foodcatalog/internal/middleware"
	"foodcatalog/internal/repository"
	"foodcatalog/internal/service"
	"foodcatalog/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending SQL migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn := cfg.DB.ConnectionString()
	if serveMigrate {
		if err := database.MigrateUp(dsn); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	}

	db, err := database.NewConnection(dsn, cfg.DB.AutoMigrate, log)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")

	// Set up WebSocket Hub
	// Stopped after the server has drained, not on the signal
	hub := websocket.NewHub(log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	publisher := events.Fanout{hub}
	if cfg.AMQP.URL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publisher = append(publisher, rabbit)
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("publishing catalog events to RabbitMQ")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	productRepo := repository.NewProductRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	roleService := service.NewRoleService(roleRepo, userRepo, txManager, log)
	if err := roleService.SeedDefaultRoles(ctx); err != nil {
		return err
	}
	if err := roleService.EnsureAdministrator(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		return err
	}

	tokens := auth.NewTokenManager([]byte(cfg.Session.Secret), cfg.Session.TTL, cfg.Session.Issuer)
	accountService := service.NewAccountService(userRepo, roleRepo, auditRepo, txManager, tokens)
	productService := service.NewProductService(productRepo, auditRepo, txManager, publisher, log)
	adminService := service.NewAdminService(userRepo, roleRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)

	authn := middleware.NewAuthenticator(tokens, accountService, cfg.Session.PrincipalCacheTTL, cfg.Session.CookieSecure, log)

	router := handler.NewRouter(authn, log, cfg.HTTP.CORSOrigins,
		handler.NewAccountHandler(accountService, authn, log),
		handler.NewProductHandler(productService, log),
		handler.NewAdminHandler(adminService, auditService, authn, log),
		handler.NewDashboardHandler(productService, accountService, log),
		handler.NewCatalogFeedHandler(hub),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stopHub()
	return err
}
