package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"astrowell_go_backend/cmd/api/config"
	"astrowell_go_backend/internal/api"
	"astrowell_go_backend/internal/auth"
	"astrowell_go_backend/internal/services"
	"astrowell_go_backend/internal/store"
	"astrowell_go_backend/internal/utils/broker"
	"astrowell_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if os.Getenv("SESSION_JWT_SECRET") == "" {
		log.Fatal("SESSION_JWT_SECRET is not set in the environment")
	}

	cfg := config.NewConfig()

	kv, err := openStore()
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// Internal services
	creditLedger := services.NewCreditLedger(kv, cfg.DailyCreditAllotment)
	sessionManager := services.NewSessionManager(kv, creditLedger)
	moodTracker := services.NewMoodTracker(kv)
	chatArchive := services.NewChatArchive(kv)
	readingGenerator := services.NewReadingGenerator()

	replyBroker := broker.NewBroker()
	chatService := services.NewChatSessionService(
		creditLedger,
		chatArchive,
		readingGenerator,
		replyBroker,
		cfg.ReplyDelay,
	)

	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173" // Default to the local frontend
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: restrict to ALLOWED_ORIGINS in production
		},
	}
	wsHandler := wsocket.NewHandler(chatService, upgrader)

	api.SetupRoutes(r, sessionManager, creditLedger, moodTracker, chatArchive, chatService, cfg.SessionTokenTTL)

	r.GET("/ws", auth.AuthMiddleware(sessionManager), func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request, replyBroker)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore picks the persistence backend: Postgres when a DSN is
// configured, otherwise a local JSON file.
func openStore() (store.Store, error) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	}

	path := os.Getenv("ASTROWELL_DATA_FILE")
	if path == "" {
		path = "astrowell_data.json"
	}
	return store.NewFileStore(path)
}
