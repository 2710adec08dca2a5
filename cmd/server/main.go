// @title           Script Analysis API
// @version         2.1.0
// @description     Backend API for film-production script analysis. Uploads PDF scripts to the AI analysis service, stores the resulting scene/cast/cost/location/props breakdowns, and manages projects, users, and review feedback.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"script-analysis-backend/docs"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/auth"
	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/handlers"
	"script-analysis-backend/internal/logging"
	"script-analysis-backend/internal/middleware"
	"script-analysis-backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	store, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer store.Close()
	if err := store.EnsureAll(); err != nil {
		logger.Fatalw("failed to prepare database schema", "error", err)
	}

	analyzerClient := analyzer.NewClient(cfg.AnalyzerURL, time.Duration(cfg.AnalyzerTimeout)*time.Second)
	oauthService := auth.NewOAuthService(cfg)
	archive := services.NewArchiveService(cfg, logger)
	if archive == nil {
		logger.Infow("script archive disabled: storage not configured")
	}

	healthHandler := handlers.NewHealthHandler(store, analyzerClient)
	authHandler := handlers.NewAuthHandler(store, oauthService, cfg)
	scriptsHandler := handlers.NewScriptsHandler(store, analyzerClient, archive, cfg)
	projectsHandler := handlers.NewProjectsHandler(store, analyzerClient, archive, cfg)
	chatHandler := handlers.NewChatHandler(analyzerClient)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Service banner and health check (no auth)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")

	// Auth routes reachable without a token
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/status", authHandler.Status)
	authGroup.GET("/oauth/:provider/authorize", authHandler.OAuthAuthorize)
	authGroup.GET("/oauth/:provider/callback", authHandler.OAuthCallback)

	// Everything else requires a Bearer token
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))

	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/auth/verify-token", authHandler.VerifyToken)

	// Script analysis
	protected.POST("/analyze-script", scriptsHandler.AnalyzeScript)
	protected.POST("/save-analysis", scriptsHandler.SaveAnalysis)
	protected.GET("/analyzed-scripts", scriptsHandler.ListScripts)
	protected.GET("/analyzed-scripts/count", scriptsHandler.CountScripts)
	protected.GET("/analyzed-scripts/:script_id", scriptsHandler.GetScript)
	protected.DELETE("/analyzed-scripts/:script_id", scriptsHandler.DeleteScript)
	protected.GET("/scripts-awaiting-feedback", scriptsHandler.ScriptsAwaitingFeedback)
	protected.POST("/provide-feedback/:script_id", scriptsHandler.ProvideFeedback)
	protected.GET("/scripts/statistics", scriptsHandler.Statistics)
	protected.GET("/scripts", scriptsHandler.ListScriptRecords)
	protected.GET("/scripts/:script_id", scriptsHandler.GetScriptRecord)

	// Projects
	protected.POST("/projects", projectsHandler.CreateProject)
	protected.GET("/projects", projectsHandler.ListProjects)
	protected.GET("/projects/:project_id", projectsHandler.GetProject)
	protected.PUT("/projects/:project_id", projectsHandler.UpdateProject)
	protected.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	protected.GET("/projects/:project_id/analysis", projectsHandler.GetProjectAnalysis)
	protected.POST("/create-project-with-script", projectsHandler.CreateProjectWithScript)

	// Assistant chat
	protected.POST("/chat", chatHandler.Chat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler := services.NewReconciler(store, cfg.RollupReconcileCron, logger)
	go reconciler.Run(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infow("server starting", "port", cfg.Port, "mode", cfg.GinMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("forced shutdown", "error", err)
	}
}
