package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillswap/config"
	"skillswap/handler"
	"skillswap/middleware"
	"skillswap/model"
	"skillswap/service"
	"skillswap/store"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func init() {
	// the service works in UTC
	time.Local = time.UTC
}

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer utils.CloseDB()
	db := utils.GetDB()

	matchStore := store.NewGormStore(db)
	if err := matchStore.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate match tables")
	}
	if err := db.AutoMigrate(&model.Notification{}, &model.NotificationTemplate{}, &model.UserRelationship{}, &model.SystemSettings{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate tables")
	}

	middleware.InitAuth(cfg.JWTSecret)

	sysSvc := service.NewSystemSettingsService(db)
	if err := sysSvc.SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load system settings")
	}

	// the redis lock serializes a pair across instances, the local one only within this process
	var locker service.PairLocker
	if cfg.EnableRedis {
		if err := utils.InitRedis(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer utils.CloseRedis()
		locker = service.NewRedisPairLocker(utils.GetRedis(), cfg.Match.PairLockTTL, cfg.Match.PairLockWait)
	} else {
		log.Warn().Msg("redis disabled, pair locks and websocket fan-out are local to this instance")
		locker = service.NewLocalPairLocker(0, cfg.Match.PairLockWait)
	}

	relSvc := service.NewRelationshipService(db)
	guard := service.NewConsistencyGuard(matchStore, locker, cfg.Match.GuardMaxAttempts)
	matchSvc := service.NewMatchService(matchStore, guard, relSvc)
	notifSvc := service.NewNotificationService(db, matchStore, sysSvc)
	templateSvc := service.NewNotificationTemplateService(db)
	if err := templateSvc.InitDefaultTemplates(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to init default notification templates")
	}
	notifSvc.SetTemplateRenderer(templateSvc)

	hub := handler.NewHub(utils.GetRedis(), sysSvc, matchStore)
	hub.SetNotificationService(notifSvc)
	notifSvc.SetHubNotifier(hub)
	if err := hub.StartPubSub(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start websocket fan-out")
	}
	defer hub.StopPubSub()

	// persisted notification first, then the live push
	matchSvc.AddEventSink(notifSvc)
	matchSvc.AddEventSink(hub)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(handler.Handlers{
		Match:        handler.NewMatchHandler(matchSvc),
		Notification: handler.NewNotificationHandler(notifSvc),
		Relationship: handler.NewRelationshipHandler(relSvc),
		Settings:     handler.NewSystemSettingsHandler(sysSvc),
		Templates:    handler.NewNotificationTemplateHandler(templateSvc),
		Hub:          hub,
		AdminIDs:     cfg.AdminUserIDs,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("skillswap service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
