package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lunchline/pos-server/config"
	"github.com/lunchline/pos-server/database"
	"github.com/lunchline/pos-server/middlewares"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/router"
	"github.com/lunchline/pos-server/services"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env before anything else reads the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	// Initialize DB
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Set gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	if err := database.Seed(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	// Setup rate limiter (50 requests per second per IP)
	rateLimiter := middlewares.NewRateLimiter(50, 1)

	// Session monitor sweeps idle registers into abandoned state
	monitor := services.NewSessionMonitor(db, config.SessionTimeout())
	monitor.Start()
	defer monitor.Stop()

	// Setup router
	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())

	// Set trusted proxies
	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	// Run server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Station{},
		&models.Customer{},
		&models.Item{},
		&models.LineLog{},
		&models.Session{},
		&models.Transaction{},
		&models.Payment{},
		&models.TransactionLog{},
		&models.CashFamily{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
