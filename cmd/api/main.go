package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/pasarlink/marketplace-backend/internal/config"
	"github.com/pasarlink/marketplace-backend/internal/db"
	"github.com/pasarlink/marketplace-backend/internal/logging"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// The server comes up before the database is ready; repositories answer
	// with ErrDBNotReady until the connection is injected below.
	srv := server.New(nil, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Error("db connect", zap.Error(err))
			return
		}
		if err := conn.AutoMigrate(
			&model.Item{},
			&model.Order{},
			&model.OrderItem{},
			&model.InstallmentPlan{},
			&model.ScheduleEntry{},
			&model.InstallmentProof{},
			&model.Notification{},
			&model.AuditLog{},
		); err != nil {
			logger.Error("auto migrate", zap.Error(err))
			return
		}
		srv.SetDB(conn)
		logger.Info("database ready")
		go srv.PenaltyEngine().Run(ctx)
	}()

	if err := <-errCh; err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
