package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/knowitapp/knowit-backend/internal/clients/gemini"
	"github.com/knowitapp/knowit-backend/internal/data/db"
	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/http/handlers"
	"github.com/knowitapp/knowit-backend/internal/http/middleware"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
	"github.com/knowitapp/knowit-backend/internal/server"
	"github.com/knowitapp/knowit-backend/internal/services"
	"github.com/knowitapp/knowit-backend/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	port := utils.GetEnv("KNOWIT_PORT", "3001", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	folderRepo := repos.NewFolderRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	ownershipService := services.NewOwnershipService(log, folderRepo, questionRepo)
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	folderService := services.NewFolderService(thePG, log, folderRepo, questionRepo, ownershipService)
	questionService := services.NewQuestionService(thePG, log, folderRepo, questionRepo, ownershipService)

	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Warn("Could not init GeminiClient; question generation disabled", "error", err)
	}
	generateService := services.NewGenerateService(log, geminiClient)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	folderHandler := handlers.NewFolderHandler(folderService, questionService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	generateHandler := handlers.NewGenerateHandler(generateService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		FolderHandler:   folderHandler,
		QuestionHandler: questionHandler,
		GenerateHandler: generateHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
