package main

import (
	"context"
	"log"
	"time"

	"xiaonuan/internal/models"
	"xiaonuan/internal/repository"
	"xiaonuan/pkg/auth"
	"xiaonuan/pkg/config"
	"xiaonuan/pkg/logger"
	"xiaonuan/pkg/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeds a demo account with a handful of transactions so the API can be
// exercised without registering first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	if existing, _ := userRepo.GetByEmail(ctx, "demo@example.com"); existing != nil {
		appLogger.Info("Demo user already exists, nothing to do", zap.Int64("user_id", existing.ID))
		return
	}

	hashed, err := auth.HashPassword("demo123456")
	if err != nil {
		appLogger.Fatal("Failed to hash demo password", zap.Error(err))
	}

	now := time.Now()
	userID, err := userRepo.Create(ctx, &models.User{
		Username:  "demo",
		Email:     "demo@example.com",
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}
	appLogger.Info("Created demo user", zap.Int64("user_id", userID))

	samples := []struct {
		txType      models.TransactionType
		amount      string
		description string
		category    string
		daysAgo     int
	}{
		{models.TransactionExpense, "35.00", "午饭", "餐饮美食", 0},
		{models.TransactionExpense, "12.50", "地铁通勤", "交通出行", 1},
		{models.TransactionExpense, "268.00", "超市采购", "日用百货", 3},
		{models.TransactionIncome, "8500.00", "工资", "工资薪酬", 5},
		{models.TransactionExpense, "99.00", "视频会员年费", "文教娱乐", 7},
	}

	txs := make([]*models.Transaction, 0, len(samples))
	for _, s := range samples {
		amount, err := decimal.NewFromString(s.amount)
		if err != nil {
			appLogger.Fatal("Invalid sample amount", zap.String("amount", s.amount), zap.Error(err))
		}
		day := now.AddDate(0, 0, -s.daysAgo)
		txs = append(txs, &models.Transaction{
			UserID:          userID,
			Type:            s.txType,
			Amount:          amount,
			Currency:        "CNY",
			Description:     s.description,
			Category:        s.category,
			TransactionDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	ids, err := txRepo.CreateBatch(ctx, txs)
	if err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}
	appLogger.Info("Database seeding completed successfully!", zap.Int("transactions", len(ids)))
}
