package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/application/service"
	"github.com/campusfin/expense-approval/internal/config"
	"github.com/campusfin/expense-approval/internal/export"
	httpadapter "github.com/campusfin/expense-approval/internal/interfaces/http"
	"github.com/campusfin/expense-approval/internal/notification"
	"github.com/campusfin/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/campusfin/expense-approval/internal/infrastructure/storage"
	"github.com/campusfin/expense-approval/pkg/database"
	"github.com/campusfin/expense-approval/pkg/utils"
)

func main() {
	// Local .env overrides are optional
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense approval service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)

	reportRepo := repository.NewReportRepository(db, logger)

	notifier := notification.NewStatusNotifier(
		notification.Config{
			FinanceEmail: cfg.Notification.FinanceEmail,
			SenderName:   cfg.Notification.SenderName,
		},
		notification.NewLogSender(logger),
		logger,
	)

	reportService := service.NewReportService(reportRepo, kvLogger)
	approvalService := service.NewApprovalService(reportRepo, notifier, kvLogger)

	receiptStore := storage.NewReceiptStore(cfg.Storage.ReceiptBaseURL, logger)
	formGenerator := export.NewFormGenerator(cfg.Export.UniversityName, logger)

	handlers := httpadapter.NewHandlers(reportService, approvalService, receiptStore, formGenerator, kvLogger)
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
