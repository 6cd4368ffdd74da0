package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xiaonuan/internal/api"
	"xiaonuan/internal/api/handlers"
	"xiaonuan/internal/llm"
	"xiaonuan/internal/repository"
	"xiaonuan/internal/service"
	"xiaonuan/pkg/auth"
	"xiaonuan/pkg/config"
	"xiaonuan/pkg/logger"
	"xiaonuan/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting xiaonuan bookkeeping service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	messageRepo := repository.NewMessageRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	gateway := llm.NewClient(&cfg.LLM, appLogger)

	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	extractService := service.NewExtractService(gateway, appLogger)
	chatService := service.NewChatService(messageRepo, extractService, gateway, appLogger)
	confirmService := service.NewConfirmService(txRepo, messageRepo, appLogger)
	receiptService := service.NewReceiptService(gateway, cfg.Upload.TempDir, appLogger)
	fileService := service.NewFileService(gateway, appLogger)
	txService := service.NewTransactionService(txRepo, confirmService, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, confirmService, receiptService, fileService, appLogger)
	txHandler := handlers.NewTransactionHandler(txService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, chatHandler, txHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
