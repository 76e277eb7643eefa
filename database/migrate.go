package database

import (
	"icchiserver/models"

	"gorm.io/gorm"
)

// AutoMigrateDB は全テーブルを作成します。
func AutoMigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Room{},
		&models.Participant{},
		&models.Round{},
		&models.Answer{},
		&models.GameHistory{},
		&models.HistoryRound{},
		&models.GameAnswer{},
	)
}
