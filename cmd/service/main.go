package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/usercopy/internal/app"
	"github.com/dropDatabas3/usercopy/internal/config"
	httpserver "github.com/dropDatabas3/usercopy/internal/http"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "usercopy",
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	a, err := app.New(ctx, cfg)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	handler, err := a.Handler()
	if err != nil {
		lg.Fatal("router failed", logger.Err(err))
	}

	err = httpserver.Serve(ctx, httpserver.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		IdleTimeout:     cfg.IdleTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, handler)
	if err != nil {
		lg.Error("server stopped with error", logger.Err(err))
		return
	}
	lg.Info("server stopped")
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
