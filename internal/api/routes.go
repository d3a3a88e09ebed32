package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"skillswipe/internal/account"
	"skillswipe/internal/api/middleware"
	"skillswipe/internal/auth"
	"skillswipe/internal/config"
	"skillswipe/internal/feed"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
	"skillswipe/internal/swipe"
	"skillswipe/internal/tasks"
	"skillswipe/internal/wishlist"
)

// Dependencies 汇总路由注册所需的外部资源。
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	AuthService *auth.AuthService
	Redis       *redis.Client
	AsynqClient *asynq.Client
	Storage     objectStorage
	Scanner     VirusScanner
	Logger      *slog.Logger
}

// RegisterRoutes 注册 /api/v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var notifier swipe.MatchNotifier
	if deps.AsynqClient != nil {
		notifier = tasks.NewMatchNotifier(deps.AsynqClient)
	}

	profiles := profile.NewService(deps.DB)
	urls := assetURLs{storage: deps.Storage, logger: logger}

	authHandler := NewAuthHandler(
		account.NewService(deps.DB),
		profiles,
		deps.AuthService,
		deps.Redis,
		logger,
		LoginProtection{
			RateLimitPerHour: cfg.Auth.LoginRateLimitPerHour,
			LockThreshold:    cfg.Auth.LoginLockThreshold,
			LockTTL:          cfg.Auth.LoginLockTTL,
		},
		cfg.Auth.CookieDomain,
	)
	profileHandler := NewProfileHandler(profiles, deps.Storage, logger)
	assetHandler := NewAssetHandler(profiles, deps.Storage, deps.Scanner, logger, cfg.API.MaxUploadBytes)
	jobHandler := NewJobHandler(jobs.NewService(deps.DB), profiles)
	swipeHandler := NewSwipeHandler(swipe.NewService(deps.DB, notifier, logger), wishlist.NewService(deps.DB))
	feedHandler := NewFeedHandler(feed.NewService(deps.DB), urls)
	wsHandler := NewWsHandler(RedisNotifications{Client: deps.Redis}, deps.AuthService, logger, cfg.API.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()
	swipeLimiter := middleware.UserRateLimiter(uint(cfg.API.SwipeRateLimitPerMinute), time.Minute)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
			authGroup.GET("/profile-status", authMiddleware, authHandler.ProfileStatus)
			authGroup.POST("/ping", authMiddleware, authHandler.Ping)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware, passwordGate)

		profileGroup := protected.Group("/profiles")
		{
			profileGroup.POST("/developer", profileHandler.CreateDeveloper)
			profileGroup.GET("/developer/me", profileHandler.GetMyDeveloper)
			profileGroup.PATCH("/developer/me", profileHandler.UpdateMyDeveloper)
			profileGroup.POST("/developer/me/avatar", assetHandler.UploadAvatar)
			profileGroup.GET("/developers", profileHandler.ListDevelopers)
			profileGroup.GET("/developers/:id", profileHandler.GetDeveloper)
		}

		companyGroup := protected.Group("/companies")
		{
			companyGroup.POST("", profileHandler.CreateCompany)
			companyGroup.GET("", profileHandler.ListCompanies)
			companyGroup.GET("/me", profileHandler.GetMyCompany)
			companyGroup.PATCH("/me", profileHandler.UpdateMyCompany)
			companyGroup.POST("/me/logo", assetHandler.UploadLogo)
			companyGroup.GET("/:id", profileHandler.GetCompany)
			companyGroup.GET("/:id/members", profileHandler.ListMembers)
			companyGroup.POST("/:id/members", profileHandler.AddMember)
		}

		jobGroup := protected.Group("/jobs")
		{
			jobGroup.POST("", jobHandler.Create)
			jobGroup.GET("", jobHandler.List)
			jobGroup.GET("/statistics", jobHandler.Statistics)
			jobGroup.GET("/:id", jobHandler.Get)
			jobGroup.PATCH("/:id", jobHandler.Update)
			jobGroup.DELETE("/:id", jobHandler.Close)
			jobGroup.POST("/:id/close", jobHandler.Close)
		}

		wishlistGroup := protected.Group("/wishlist")
		{
			wishlistGroup.GET("", swipeHandler.ListWishlist)
			wishlistGroup.POST("", swipeHandler.AddWishlist)
			wishlistGroup.DELETE("", swipeHandler.ClearWishlist)
			wishlistGroup.DELETE("/:id", swipeHandler.RemoveWishlist)
		}

		protected.POST("/swipe", swipeLimiter, swipeHandler.Swipe)
		protected.GET("/discover", feedHandler.Discover)
		protected.GET("/dashboard", feedHandler.Dashboard)
	}
}
