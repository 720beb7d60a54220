package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"task-tracker/config"
	"task-tracker/server"
	"task-tracker/telemetry"
	"task-tracker/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "task-tracker", cfg.OTelEndpoint)
	if err != nil {
		config.Exitf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	db, err := utils.OpenDB(ctx, cfg.DBPath)
	if err != nil {
		config.Exitf("storage: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(ctx); err != nil {
		config.Exitf("storage: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	srv, err := server.New(cfg.Addr, utils.NewTaskService(db), server.Options{
		RequestTimeout:  cfg.RequestTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		config.Exitf("server: %v", err)
	}
	if err := srv.Serve(ctx); err != nil {
		log.Printf("server: %v", err)
	}
}
