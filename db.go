package main

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
)

func setupDatabase(dsn string, log *zap.Logger) *gorm.DB {
	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the repositories match on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Warn("failed to ensure uuid-ossp extension", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.PendingRegistration{},
		&entity.Merchant{},
		&entity.Driver{},
		&entity.Vehicle{},
		&entity.Residence{},
		&entity.RefreshToken{},
		&entity.Order{},
	); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	return db
}
