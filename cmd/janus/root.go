package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/janus/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Proveedor de identidad: tokens firmados, sesiones y RBAC",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "ruta del archivo de configuración")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adminCmd)
}

// loadConfig levanta .env si existe y después el YAML; si el YAML no
// está, arma todo desde variables de entorno.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
			return config.FromEnv()
		}
		return nil, err
	}
	return cfg, nil
}
