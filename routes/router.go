package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/config"
	"github.com/buddies-social/buddies/controllers"
	"github.com/buddies-social/buddies/middleware"
	"github.com/buddies-social/buddies/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Aggregate daily traffic for the admin dashboard
	r.Use(middleware.ActivityRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	messageController := controllers.NewMessageController(db)
	fileController := controllers.NewFileController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public user surface
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/posts", postController.ListUserPosts)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/users/search", authController.SearchUsers)

	protected.GET("/posts", postController.Feed)
	protected.GET("/posts/search", postController.SearchPosts)
	protected.GET("/posts/:id", postController.GetPost)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/like", postController.LikePost)
	protected.POST("/posts/:id/comment", postController.CommentPost)
	protected.POST("/posts/:id/share", postController.SharePost)

	protected.POST("/messages", messageController.SendMessage)
	protected.GET("/messages/unread-count", messageController.UnreadCount)
	protected.GET("/messages/conversations", messageController.ListConversations)
	protected.GET("/messages/conversations/:userId", messageController.GetConversation)
	protected.POST("/messages/conversations/:userId/read", messageController.MarkConversationRead)
	protected.POST("/messages/:id/read", messageController.MarkRead)
	protected.DELETE("/messages/:id", messageController.DeleteMessage)

	protected.POST("/files", fileController.UploadFile)
	protected.GET("/files", fileController.ListMyFiles)
	protected.GET("/files/public", fileController.ListPublicFiles)
	protected.GET("/files/search", fileController.SearchFiles)
	protected.GET("/files/:id/download", fileController.DownloadFile)
	protected.PATCH("/files/:id", fileController.UpdateFile)
	protected.DELETE("/files/:id", fileController.DeleteFile)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired(db))
	admin.GET("/stats", statsController.Overview)
	admin.GET("/stats/daily", statsController.DailyActivity)
	admin.GET("/stats/paths", statsController.TopPaths)
	admin.GET("/users", statsController.ListUsers)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
