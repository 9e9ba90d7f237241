package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/config"
	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/routes"
	"food-ordering-api/services"
)

func main() {
	cfg := config.Load()

	// Set Gin mode
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize database
	db := config.InitDB(cfg)

	tokens := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(handlers.Deps{
		Users:    services.NewUserService(db),
		Products: services.NewProductService(db),
		Orders:   services.NewOrderService(db),
		Reports:  services.NewReportService(db),
		Tokens:   tokens,
		Uploads:  handlers.NewUploadStore(cfg.UploadDir, cfg.MaxUploadSize),
	})

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadSize
	r.Use(middleware.CORS(cfg.CORSOrigin))

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "🍔 Welcome to the Food Ordering API",
			"docs":    "/api/state-machine",
			"health":  "/health",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, h, tokens, db, cfg.UploadDir)

	// Start server
	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
