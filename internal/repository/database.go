package repository

import (
	"fmt"
	"os"

	"github.com/qrac-app/draw-chat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	// Connect to database. TranslateError turns driver unique-violation
	// errors into gorm.ErrDuplicatedKey, which the private-chat
	// get-or-create path relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Chat{},
		&models.ChatMember{},
		&models.ChatMessage{},
		&models.Attachment{},
		&models.LegacyMessage{},
		&models.ProfileSettings{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
