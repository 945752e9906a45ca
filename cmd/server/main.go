package main

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/config"
	"github.com/iliyamo/visitor-management/internal/database"
	"github.com/iliyamo/visitor-management/internal/handler"
	"github.com/iliyamo/visitor-management/internal/jobs"
	"github.com/iliyamo/visitor-management/internal/middleware"
	"github.com/iliyamo/visitor-management/internal/queue"
	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/router"
	"github.com/iliyamo/visitor-management/internal/service"
)

// requestValidator adapts go-playground/validator to Echo's Validator
// interface.
type requestValidator struct{ v *validator.Validate }

func (r *requestValidator) Validate(i interface{}) error { return r.v.Struct(i) }

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the vars
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and rate limiter; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	// Repositories.
	visits := repository.NewVisitRepo(db)
	checkIns := repository.NewCheckInRepo(db)
	visitors := repository.NewVisitorRepo(db)
	admins := repository.NewAdminRepo(db)
	notifications := repository.NewNotificationRepo(db)
	activity := repository.NewActivityLogRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Push gateway; a missing URL degrades to the no-op pusher.
	var pusher service.Pusher = service.NopPusher{}
	if cfg.PushGatewayURL != "" {
		pusher = service.NewGatewayPusher(cfg.PushGatewayURL)
	}
	dispatcher := service.NewDispatcher(notifications,
		&service.UserTokens{Visitors: visitors, Admins: admins}, pusher)

	visitSvc := service.NewVisitService(visits, dispatcher, nil, cfg.QRSecret)
	qrSvc := service.NewQRService(visits, checkIns, dispatcher, nil, cfg.QRSecret)
	reportSvc := service.NewReportService(visits, checkIns)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit events flow through RabbitMQ into activity_logs. The consumer
	// reconnects forever on broker failure.
	go func() { _ = queue.StartActivityConsumer(activity) }()

	if cfg.JobsEnabled {
		sched := jobs.NewScheduler(visits, checkIns, admins, notifications, activity, dispatcher)
		sched.Start(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, admins, tokens),
		Visits:        handler.NewVisitHandler(visitSvc, visitors, admins, dispatcher),
		CheckIns:      handler.NewCheckInHandler(qrSvc, checkIns),
		Visitors:      handler.NewVisitorHandler(visitors, checkIns),
		Notifications: handler.NewNotificationHandler(notifications, admins),
		Dashboard:     handler.NewDashboardHandler(visitSvc, checkIns),
		Reports:       handler.NewReportHandler(reportSvc),
	}, cfg.JWTSecret, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
