package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usercopy/internal/app"
	"github.com/dropDatabas3/usercopy/internal/config"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
	"github.com/dropDatabas3/usercopy/internal/store"

	// adapters registrados vía init()
	_ "github.com/dropDatabas3/usercopy/internal/store/memory"
	_ "github.com/dropDatabas3/usercopy/internal/store/pg"
)

func main() {
	var (
		configPath = envOr("CONFIG_PATH", "")
		envFile    = ".env"
		out        = envOr("USERCOPY_OUT", "text")
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "usercopy",
		Short:         "CLI de mantenimiento del mirror de usuarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				_ = godotenv.Load(envFile)
			}
			c, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg = c
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "usercopy-cli", Version: cfg.App.Version})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "ruta a config.yaml (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "ruta a .env (si existe, se carga)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	// migrate: aplica las migraciones embebidas
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := store.Open(ctx, store.Config{
				Driver:   cfg.Storage.Driver,
				DSN:      cfg.Storage.DSN,
				MaxConns: cfg.Storage.MaxConns,
				Location: cfg.Location(),
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			m, ok := conn.(store.Migratable)
			if !ok {
				return fmt.Errorf("driver %q no usa migraciones", conn.Name())
			}
			res, err := m.Migrate(ctx)
			if err != nil {
				return err
			}
			return printResult(out, res, fmt.Sprintf("applied=%v skipped=%v (%s)", res.Applied, res.Skipped, res.Duration))
		},
	}

	// sync: recorre el provider y reconcilia cada usuario
	var batch int
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcilia todos los usuarios del identity provider en el mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.ToContext(cmd.Context(), logger.L())
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services.Users.SyncAll(ctx, batch)
			if err != nil {
				return fmt.Errorf("sync fallo después de %d usuarios: %w", n, err)
			}
			return printResult(out, map[string]int{"reconciled": n}, fmt.Sprintf("reconciled=%d", n))
		},
	}
	syncCmd.Flags().IntVar(&batch, "batch", 1000, "Tamaño de página al listar el provider")

	// stats: imprime total, activos hoy y promedio
	var days int
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Imprime las estadísticas de usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.ToContext(cmd.Context(), logger.L())
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if days == 0 {
				days = cfg.Stats.DefaultDays
			}
			s, err := a.Services.Stats.Summary(ctx, days)
			if err != nil {
				return err
			}
			return printResult(out, s, fmt.Sprintf("total=%d active=%d average(%dd)=%g", s.TotalUsers, s.ActiveUsers, days, s.AverageActiveUsers))
		},
	}
	statsCmd.Flags().IntVar(&days, "days", 0, "Días para el promedio (default stats.default_days)")

	root.AddCommand(migrateCmd, syncCmd, statsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}

func printResult(format string, v any, text string) error {
	if format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	fmt.Println(text)
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
