package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/janus/internal/bootstrap"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/store/pg"
)

var (
	adminLogin    string
	adminPassword string
	adminEmail    string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Tareas administrativas contra el storage",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crea una cuenta superuser",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "janus",
		})
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		var email *string
		if adminEmail != "" {
			email = &adminEmail
		}
		u, err := bootstrap.CreateSuperuser(ctx, store, adminLogin, adminPassword, email)
		if err != nil {
			return err
		}
		fmt.Printf("superuser %s creado (id %s)\n", u.Login, u.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminLogin, "login", "", "login del superuser")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "password del superuser")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "email (opcional)")
	_ = adminCreateCmd.MarkFlagRequired("login")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}
