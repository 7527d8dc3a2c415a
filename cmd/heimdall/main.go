package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/heimdall/internal/app"
	"github.com/dropDatabas3/heimdall/internal/config"
	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/store"
)

func main() {
	// .env es opcional; en producción la config viene del entorno.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "heimdall",
		Short: "Servicio de emisión y revocación de Agent Tokens (ATK)",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "ruta al config YAML (opcional)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					logger.L().Warn("shutdown cleanup failed", logger.Err(err))
				}
			}()

			return a.Run(ctx)
		},
	}

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera el par Ed25519 si no existe (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "heimdall"})

			km := keys.NewManager(cfg.Keys.Dir, cfg.Keys.KID)
			if err := km.Load(false); err != nil {
				return err
			}
			raw, err := km.JWKSJSON()
			if err != nil {
				return err
			}
			fmt.Printf("keys ready in %s (kid=%s)\n%s\n", cfg.Keys.Dir, cfg.Keys.KID, raw)
			return nil
		},
	}

	indexesCmd := &cobra.Command{
		Use:   "indexes",
		Short: "Crea índices/esquema en el store configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "heimdall"})

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			repo, err := store.Open(ctx, store.Config{
				Driver: cfg.Storage.Driver,
				DSN:    cfg.Storage.DSN,
				Mongo:  struct{ URI, Database string }{cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database},
			})
			if err != nil {
				return err
			}
			defer repo.Close(ctx)

			if err := repo.EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Println("indexes ok")
			return nil
		},
	}

	root.AddCommand(serveCmd, keygenCmd, indexesCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
