package router

import (
	"time"

	"crewdesk/config"
	"crewdesk/internal/domain"
	"crewdesk/internal/handler"
	"crewdesk/internal/mail"
	"crewdesk/internal/middleware"
	"crewdesk/internal/repository"
	"crewdesk/internal/service"
	"crewdesk/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, sender *mail.Sender) (*gin.Engine, *service.NotificationService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	// Core collaborators
	hub := ws.NewHub()
	queue := service.NewDeliveryQueue()
	resolver := service.NewPreferenceResolver(preferenceRepo)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, sender)
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, resolver, hub, queue, sender)
	hub.SetConnectHandler(notifSvc.HandleConnect)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, notifSvc)
	emailHandler := handler.NewEmailHandler(sender, templateRepo, queue)
	preferenceHandler := handler.NewPreferenceHandler(preferenceRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/notifications", notificationHandler.List)
			me.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			me.GET("/preferences", preferenceHandler.Get)
			me.PUT("/preferences", preferenceHandler.Update)
		}

		api.GET("/notifications/types", authMw, notificationHandler.Types)
		api.POST("/notifications/send", authMw, adminMw, notificationHandler.Send)
		api.POST("/notifications/broadcast", authMw, adminMw, notificationHandler.Broadcast)

		email := api.Group("/email")
		email.Use(authMw, adminMw)
		{
			email.POST("/send", emailHandler.Send)
			email.POST("/send-template", emailHandler.SendTemplate)
			email.POST("/queue", emailHandler.Queue)
			email.POST("/queue/drain", emailHandler.DrainQueue)
			email.GET("/status", emailHandler.Status)
			email.POST("/test", emailHandler.TestConnection)
			email.GET("/templates", emailHandler.ListTemplates)
			email.POST("/templates", emailHandler.UpsertTemplate)
			email.DELETE("/templates/:name", emailHandler.DeleteTemplate)
		}
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, hub))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, notifSvc
}
