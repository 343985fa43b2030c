package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/handlers"
	"github.com/knowitapp/knowit-backend/internal/http/middleware"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	FolderHandler   *handlers.FolderHandler
	QuestionHandler *handlers.QuestionHandler
	GenerateHandler *handlers.GenerateHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(middleware.AttachRequestID())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	// Protected
	folders := router.Group("/api/folders")
	folders.Use(cfg.AuthMiddleware.RequireAuth())
	{
		folders.GET("", cfg.FolderHandler.List)
		folders.POST("", cfg.FolderHandler.Create)
		folders.GET("/:id", cfg.FolderHandler.Get)
		folders.PUT("/:id", cfg.FolderHandler.Update)
		folders.DELETE("/:id", cfg.FolderHandler.Delete)
		folders.POST("/:id/copy", cfg.FolderHandler.Copy)
		folders.POST("/:id/import-csv", cfg.FolderHandler.ImportQuestions)
		folders.GET("/play/:folderId", cfg.FolderHandler.Play)

		folders.GET("/:id/questions", cfg.FolderHandler.ListQuestions)
		folders.POST("/:id/questions", cfg.FolderHandler.AddQuestion)
		folders.GET("/:id/questions/count", cfg.FolderHandler.QuestionCount)
		folders.DELETE("/:id/questions/:questionId", cfg.FolderHandler.RemoveQuestion)
		folders.PUT("/:id/questions/:questionId/move", cfg.FolderHandler.MoveQuestion)
		folders.POST("/:id/questions/copy", cfg.FolderHandler.CopyQuestion)
		folders.POST("/:id/questions/delete-multiple", cfg.FolderHandler.DeleteQuestions)
		folders.PUT("/:id/questions/move-multiple", cfg.FolderHandler.MoveQuestions)
		folders.POST("/:id/questions/copy-multiple", cfg.FolderHandler.CopyQuestions)
	}

	questions := router.Group("/api/questions")
	questions.Use(cfg.AuthMiddleware.RequireAuth())
	{
		questions.POST("/answer", cfg.QuestionHandler.ProcessAnswer)
		questions.GET("/:id", cfg.QuestionHandler.Get)
		questions.PUT("/:id", cfg.QuestionHandler.Update)
		questions.DELETE("/:id", cfg.QuestionHandler.Delete)
	}

	gemini := router.Group("/api/gemini")
	gemini.Use(cfg.AuthMiddleware.RequireAuth())
	{
		gemini.POST("/generate-question", cfg.GenerateHandler.GenerateQuestion)
	}

	return router
}
