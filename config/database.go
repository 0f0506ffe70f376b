package config

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lablinkriparo/riparo-be/models"
)

var DB *gorm.DB

func ConnectDatabase() {
	database, err := gorm.Open(postgres.Open(C.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}

	DB = database

	// Auto migrate the schema
	err = DB.AutoMigrate(
		&models.User{},
		&models.Centro{},
		&models.Corner{},
		&models.Customer{},
		&models.Device{},
		&models.Repair{},
		&models.SparePart{},
		&models.LoyaltyCard{},
		&models.CornerLoyaltyInvitation{},
		&models.CreditTransaction{},
		&models.TopupRequest{},
	)
	if err != nil {
		log.Fatal("Error migrating database: ", err)
	}

	log.Info("Database connected and migrated")
}
