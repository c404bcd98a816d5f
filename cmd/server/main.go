package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"pcb_bistro_backend/internal/database"
	"pcb_bistro_backend/internal/notifications"
	"pcb_bistro_backend/internal/realtime"
	"pcb_bistro_backend/internal/router"
	"pcb_bistro_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize Logger
	utils.InitLogger()

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "pcb_bistro_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "pcb_bistro_password")
	dbName := utils.Getenv("DB_NAME", "pcb_bistro_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	// Initialize Database
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)

	// Mail transport for order confirmations, status updates and invoices
	smtpPort, err := strconv.Atoi(utils.Getenv("SMTP_PORT", "587"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SMTP_PORT")
	}
	mailer := notifications.NewMailer(notifications.SMTPConfig{
		Host:     utils.Getenv("SMTP_HOST", "localhost"),
		Port:     smtpPort,
		Username: utils.Getenv("SMTP_USERNAME", ""),
		Password: utils.Getenv("SMTP_PASSWORD", ""),
		From:     utils.Getenv("SMTP_FROM", "objednavky@pcbbistro.sk"),
	})
	renderer := notifications.NewPDFRenderer()

	// Realtime feed for the admin dashboard
	hub := realtime.NewHub()
	go hub.Run()

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"} // Default origins
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	router.Setup(engine, database.GetDB(), hub, mailer, renderer)

	// Server port configuration
	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
