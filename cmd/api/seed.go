package main

import (
	"fmt"

	"foodcatalog/internal/database"
	"foodcatalog/internal/repository"
	"foodcatalog/internal/service"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the built-in roles and the optional administrator account",
	Long: `Creates Administrator, FoodProducer and RegularUser when missing.
When ADMIN_USERNAME and ADMIN_PASSWORD are set, also creates that
account in the Administrator role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		db, err := database.NewConnection(cfg.DB.ConnectionString(), cfg.DB.AutoMigrate, log)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}

		roles := service.NewRoleService(
			repository.NewRoleRepository(db),
			repository.NewUserRepository(db),
			repository.NewTransactionManager(db),
			log,
		)
		if err := roles.SeedDefaultRoles(cmd.Context()); err != nil {
			return err
		}
		return roles.EnsureAdministrator(cmd.Context(), cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
