package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/config"
	"github.com/cppla/rsvblog/controllers"
	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/middleware"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/storage"
	"github.com/cppla/rsvblog/utils"
)

// Deps are the process-wide resources the HTTP layer is built on.
type Deps struct {
	DB        *gorm.DB
	Store     storage.Store
	Publisher events.Publisher
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.App.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(accessLog(cfg)...)

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 0 || (len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	likes := services.NewLikeCounter()
	memberService := services.NewMemberService()
	postService := services.NewPostService(deps.Publisher, likes)
	commentService := services.NewPostCommentService(deps.Publisher)
	fileService := services.NewGenFileService(deps.Store, deps.Publisher)

	authController := controllers.NewAuthController(deps.DB, memberService)
	postController := controllers.NewPostController(deps.DB, postService, memberService)
	commentController := controllers.NewCommentController(deps.DB, postService, commentService, memberService)
	fileController := controllers.NewGenFileController(deps.DB, fileService, postService, commentService, memberService,
		cfg.Storage.TempDir, cfg.Storage.MaxUploadMB)

	limit := middleware.RateLimit(cfg.App.RateLimitPerMinute)
	api := r.Group("/api/v1")
	public := api.Group("", middleware.AuthOptional(), limit)
	protected := api.Group("", middleware.AuthRequired(), limit)

	api.POST("/members/join", limit, authController.Join)
	api.POST("/members/login", limit, authController.Login)
	protected.POST("/members/logout", authController.Logout)
	protected.GET("/members/me", authController.Me)

	public.GET("/posts", postController.List)
	public.GET("/posts/:id", postController.Get)
	public.GET("/posts/:id/likes", postController.Likes)
	public.GET("/posts/:id/comments", commentController.List)
	protected.GET("/posts/mine", postController.ListMine)
	protected.POST("/posts", postController.Write)
	protected.POST("/posts/temp", postController.Temp)
	protected.PUT("/posts/:id", postController.Edit)
	protected.DELETE("/posts/:id", postController.Delete)
	protected.POST("/posts/:id/like", postController.Like)
	protected.DELETE("/posts/:id/like", postController.CancelLike)
	protected.POST("/posts/:id/comments", commentController.Write)
	protected.POST("/posts/:id/comments/temp", commentController.Temp)
	protected.PUT("/posts/:id/comments/:commentId", commentController.Edit)
	protected.DELETE("/posts/:id/comments/:commentId", commentController.Delete)

	public.GET("/gen-files/download/:fileName", fileController.Download)
	public.GET("/gen-files/:relTypeCode/:relId", fileController.List)
	protected.POST("/gen-files/:relTypeCode/:relId", fileController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

// accessLog writes gin access and panic logs to their own rolling file when one is configured.
func accessLog(cfg config.AppConfig) []gin.HandlerFunc {
	logger := utils.Logger
	if cfg.App.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.App.GinPath, cfg.Log)
		if err != nil {
			utils.Logger.Warn("gin log file unavailable, using app logger", zap.Error(err))
		} else {
			logger = gl
		}
	}
	return []gin.HandlerFunc{
		utils.Ginzap(logger, time.RFC3339, true),
		utils.RecoveryWithZap(logger, false),
	}
}
