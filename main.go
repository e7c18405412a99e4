package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"retentionflow-backend/config"
	"retentionflow-backend/models"
	"retentionflow-backend/routes"
	"retentionflow-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}
	cfg := config.Load()
	config.InitLogger(cfg.LogLevel, cfg.Env)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	ctx := context.Background()

	authz, err := services.NewAuthorizer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize authorizer")
	}

	var lock services.RunLock = services.NewLocalRunLock()
	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		lock = services.NewRedisRunLock(client)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, cycle overlap guard is process-local")
	}

	var sms services.SMSSender
	if cfg.TwilioEnabled() {
		sms = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	}

	var rewriter services.Rewriter
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiRewriter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		defer gemini.Close()
		rewriter = gemini
	}

	registry := prometheus.NewRegistry()
	metrics := services.NewCycleMetrics(registry)

	rules := services.NewRuleService(db, authz)
	followups := services.NewFollowupService(services.NewGormFollowupStore(db), lock, sms, metrics, authz, services.FollowupConfig{
		StoreTimeout: cfg.StoreTimeout,
		MaxAttempts:  cfg.CycleMaxAttempts,
		RetryDelay:   cfg.CycleRetryDelay,
		LockTTL:      cfg.CycleLockTTL,
		Templates: map[models.FollowupType]string{
			models.FollowupReminder: cfg.ReminderTemplate,
			models.FollowupReview:   cfg.ReviewTemplate,
			models.FollowupBirthday: cfg.BirthdayTemplate,
		},
	})

	r := routes.SetupRouter(routes.Dependencies{
		Config:       cfg,
		Clients:      services.NewClientService(db, rules),
		Rules:        rules,
		Followups:    followups,
		Analytics:    services.NewAnalyticsService(db, rules),
		Teams:        services.NewTeamService(db, authz, cfg.InvitationTTL),
		Personalizer: services.NewPersonalizer(rewriter),
		Gatherer:     registry,
	})
	printRoutes(r)

	if cfg.SchedulerEnabled {
		scheduler, err := services.StartScheduler(followups, cfg.SchedulerCron, cfg.Location())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer scheduler.Stop()
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}
}
