package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crewdesk/config"
	"crewdesk/internal/database"
	"crewdesk/internal/logger"
	"crewdesk/internal/mail"
	"crewdesk/internal/metrics"
	"crewdesk/internal/repository"
	"crewdesk/internal/router"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Init(cfg.Server.Env); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	metrics.Register()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.L().Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.L().Fatal("migrate", zap.Error(err))
	}
	database.SeedAdmin(db)

	sender := mail.NewSender(&cfg.Mail)
	seedTemplates(db, sender)

	engine, notifSvc := router.Setup(cfg, db, sender)

	stop := make(chan struct{})
	go notifSvc.RunCleanup(cfg.Notify.CleanupInterval, stop)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.L().Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Info("shutting down")
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Fatal("server shutdown", zap.Error(err))
	}
	logger.L().Info("server stopped")
}

// seedTemplates persists the built-in templates that aren't stored yet, then
// loads every stored template into the sender so edits survive restarts.
func seedTemplates(db *gorm.DB, sender *mail.Sender) {
	repo := repository.NewTemplateRepository(db)
	for _, t := range mail.DefaultTemplates() {
		if _, err := repo.GetByName(t.Name); err == nil {
			continue
		}
		tmpl := t
		if err := repo.Upsert(&tmpl); err != nil {
			logger.L().Warn("seed template failed", zap.String("template", t.Name), zap.Error(err))
		}
	}
	stored, err := repo.List()
	if err != nil {
		logger.L().Warn("load templates failed", zap.Error(err))
		return
	}
	for _, t := range stored {
		sender.RegisterTemplate(t)
	}
}
