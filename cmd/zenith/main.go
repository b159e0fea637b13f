package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zenithwms/zenith/internal/app"
	"github.com/zenithwms/zenith/internal/config"
	"github.com/zenithwms/zenith/internal/observability/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "caminho do config.yaml (opcional)")
	flag.Parse()

	// .env só existe em dev; em produção as variáveis vêm do ambiente
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init(logger.Config{})
		logger.L().Fatal("falha ao carregar configuração", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "zenith",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.L().Fatal("configuração inválida", logger.Err(err))
	}
	if cfg.IsSandbox() {
		logger.L().Warn("apontando para o sandbox do Sankhya, ambiente de testes")
	}

	application, err := app.New(cfg)
	if err != nil {
		logger.L().Fatal("falha ao montar o serviço", logger.Err(err))
	}
	defer func() { _ = application.Close() }()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      application.Handler(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		logger.L().Info("servidor HTTP no ar", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("servidor HTTP caiu", logger.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.L().Info("desligando")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("shutdown não limpo", logger.Err(err))
	}
}
