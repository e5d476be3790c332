// seed inserts the two demo accounts and their messages for local testing.
// Idempotent: each table is only filled while it is empty.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	accountrepo "account-console/internal/account/repository"
	"account-console/internal/config"
	"account-console/internal/db"
	"account-console/internal/db/migrate"
	"account-console/internal/logging"
	messagerepo "account-console/internal/message/repository"
	"account-console/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()
	if err := migrate.Up(conn); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	s := seed.NewSeeder(accountrepo.NewSQLRepository(conn), messagerepo.NewSQLRepository(conn), logger)
	res, err := s.Seed(context.Background())
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	if res.Accounts == 0 && res.Messages == 0 {
		logger.Info("tables already populated; nothing to do")
	}
}
