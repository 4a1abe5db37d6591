package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/config"
	"github.com/ariefcatur/go-digital-market.git/internal/disputes"
	"github.com/ariefcatur/go-digital-market.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/ariefcatur/go-digital-market.git/internal/market"
	"github.com/ariefcatur/go-digital-market.git/internal/notifier"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/ariefcatur/go-digital-market.git/internal/reviews"
	"github.com/ariefcatur/go-digital-market.git/internal/webhook"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: satu per topic notifikasi
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderPaid, 1024, log)
	pPaid.Start(ctx)
	pRefund := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderRefunded, 1024, log)
	pRefund.Start(ctx)
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCancelled, 1024, log)
	pCancel.Start(ctx)

	pub := &notifier.Publisher{
		Paid:      pPaid,
		Refunded:  pRefund,
		Cancelled: pCancel,
		Service:   cfg.ServiceName,
		Log:       log,
	}

	// Repos & services
	repo := &market.Repo{DB: db, FeeBps: cfg.PlatformFeeBps}
	webhookSvc := &webhook.Service{
		Orders:    repo,
		Events:    &market.EventRepo{DB: db},
		Cache:     &redisx.EventCache{RDB: rdb},
		Notify:    pub,
		Secret:    cfg.WebhookSecret,
		Tolerance: cfg.SignatureTolerance,
		Log:       log,
	}
	disputeSvc := &disputes.Service{
		Store:   &market.DisputeRepo{DB: db},
		Limiter: &redisx.Limiter{RDB: rdb, Scope: "dispute", Limit: cfg.DisputeDailyLimit},
		Log:     log,
	}
	reviewSvc := &reviews.Service{
		Store: &market.ReviewRepo{DB: db},
		Log:   log,
	}

	// Router
	router := httpx.NewRouter()
	(&httpx.WebhookHandler{Svc: webhookSvc}).Register(router)
	(&httpx.MarketHandler{Repo: repo}).Register(router)
	(&httpx.DisputeHandler{Svc: disputeSvc}).Register(router)
	(&httpx.ReviewHandler{Svc: reviewSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer, baru cancel context
	pPaid.Close()
	pRefund.Close()
	pCancel.Close()
	pPaid.WaitClosed()
	pRefund.WaitClosed()
	pCancel.WaitClosed()
	cancel()
}
