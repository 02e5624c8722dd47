package main

import (
	"log"
	"os"
	"strings"

	_ "invoicebuilder/api/swagger" // swagger docs
	"invoicebuilder/internal/handler"
	"invoicebuilder/internal/service"
	"invoicebuilder/internal/session"
	"invoicebuilder/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Invoice Builder API
// @version         1.0
// @description     Session-scoped invoice drafting with derived totals, live preview and PDF export.
// @host            localhost:8080
// @BasePath        /
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173,http://localhost:3000"
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Session registry -> Service -> Handler)
	sessionManager := session.NewManager()
	editorService := service.NewEditorService(sessionManager, wsHub)
	editorHandler := handler.NewEditorHandler(editorService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(corsOrigins, ",")
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for live preview snapshots
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, sessionManager)
	})

	// Register API Routes
	editorHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
