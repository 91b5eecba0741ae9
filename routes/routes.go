package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/config"
	"github.com/collegelover/college-lover-api/controllers"
	"github.com/collegelover/college-lover-api/middleware"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
	"github.com/collegelover/college-lover-api/ws"
)

// Dependencies are the process-wide collaborators built in main. Storage,
// Mailer and Metrics are optional.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *logrus.Logger
	Verifier services.IdentityVerifier
	Storage  utils.Storage
	Mailer   utils.Mailer
	Metrics  *middleware.Metrics
	Hub      *ws.Hub
}

func SetupRouter(r *gin.Engine, deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	hub := deps.Hub
	if hub == nil {
		hub = ws.NewHub(log)
	}

	tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.TokenTTL())

	materialOpts := []services.MaterialOption{services.WithPublisher(hub)}
	if deps.Storage != nil {
		materialOpts = append(materialOpts, services.WithStorage(deps.Storage))
	}
	if deps.Mailer != nil {
		materialOpts = append(materialOpts, services.WithMailer(deps.Mailer))
	}

	authCtrl := controllers.NewAuthController(
		services.NewAuthService(deps.DB, tokens, deps.Verifier, log),
		controllers.CookieOptions{TTL: cfg.CookieTTL(), Secure: cfg.IsProduction()},
	)
	materialCtrl := controllers.NewMaterialController(
		services.NewMaterialService(deps.DB, log, materialOpts...),
		services.NewUploadService(deps.Storage, log),
	)
	userCtrl := controllers.NewUserController(services.NewUserService(deps.DB, log))
	wsHandler := ws.NewHandler(hub, cfg.ClientURL)

	r.Use(middleware.RequestLogger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.ErrorHandler(log, cfg.IsProduction()))
	r.Use(middleware.Recovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := controllers.HealthCheck(deps.DB, hub)
	r.GET("/health", health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.NoRoute(middleware.NotFound)

	r.GET("/ws/materials/:id", wsHandler.Material)
	r.GET("/ws/materials", wsHandler.Global)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimitWindow())
	api := r.Group("/api", limiter.Middleware())
	v1 := api.Group("/v1")
	v1.GET("/health", health)

	requireAuth := middleware.AuthMiddleware(tokens, deps.DB)
	requireAdmin := middleware.RequireAdmin()

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
		auth.POST("/social", authCtrl.SocialLogin)
		auth.GET("/me", requireAuth, authCtrl.Me)
		auth.POST("/logout", requireAuth, authCtrl.Logout)
		auth.PUT("/updateprofile", requireAuth, authCtrl.UpdateProfile)
		auth.PUT("/updatepassword", requireAuth, authCtrl.UpdatePassword)
	}

	materials := v1.Group("/materials")
	{
		materials.GET("", materialCtrl.List)
		materials.GET("/stats", requireAuth, requireAdmin, materialCtrl.Stats)
		materials.GET("/:id", materialCtrl.Get)
		materials.POST("", requireAuth, materialCtrl.Create)
		materials.POST("/upload", requireAuth, materialCtrl.Upload)
		materials.PUT("/:id", requireAuth, materialCtrl.Update)
		materials.DELETE("/:id", requireAuth, materialCtrl.Delete)
		materials.PUT("/:id/approve", requireAuth, requireAdmin, materialCtrl.Approve)
		materials.PUT("/:id/download", materialCtrl.TrackDownload)
		materials.PUT("/:id/like", requireAuth, materialCtrl.ToggleLike)
		materials.PUT("/:id/bookmark", requireAuth, materialCtrl.ToggleBookmark)
		materials.POST("/:id/comments", requireAuth, materialCtrl.AddComment)
		materials.DELETE("/:id/comments/:commentId", requireAuth, materialCtrl.DeleteComment)
	}

	users := v1.Group("/users", requireAuth, requireAdmin)
	{
		users.GET("", userCtrl.List)
		users.GET("/:id", userCtrl.Get)
		users.PUT("/:id/role", userCtrl.UpdateRole)
		users.DELETE("/:id", userCtrl.Delete)
	}

	return r
}
