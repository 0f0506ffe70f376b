package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/jobs"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/routes"
	"github.com/lablinkriparo/riparo-be/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	if err := config.Load(); err != nil {
		log.Fatal(err)
	}

	// Connect to database and run migrations
	config.ConnectDatabase()
	sqlDB, err := config.GetSQLDB()
	if err != nil {
		log.Fatal(err)
	}
	if err := config.RunMigrations(sqlDB); err != nil {
		log.Fatal(err)
	}

	config.ConnectRedis()
	config.InitializeWebSocketHub()

	// Create default admin user if it doesn't exist
	createDefaultAdmin()

	// Nightly forfeiture sweep
	if config.C.ForfeitureCron {
		scheduler := jobs.NewScheduler(services.NewForfeitureService(config.DB, services.NewLogNotifier()))
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Setup routes
	r := routes.SetupRoutes()

	log.Infof("Server starting on port %s", config.C.Port)
	if err := r.Run(":" + config.C.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func createDefaultAdmin() {
	var count int64
	config.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	if count == 0 {
		authService := services.NewAuthService(config.DB)
		adminEmail := os.Getenv("ADMIN_EMAIL")
		adminPassword := os.Getenv("ADMIN_PASSWORD")

		if adminEmail == "" {
			adminEmail = "admin@lablinkriparo.it"
		}
		if adminPassword == "" {
			adminPassword = "admin123"
		}

		_, err := authService.CreateUser(adminEmail, adminPassword, "Administrator", models.RoleAdmin, nil)
		if err != nil {
			log.WithError(err).Error("Failed to create default admin")
		} else {
			log.Infof("Default admin user created: %s", adminEmail)
		}
	}
}
