package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/cowork-booking/internal/checkout"
	"github.com/Spok95/cowork-booking/internal/config"
	"github.com/Spok95/cowork-booking/internal/domain/admins"
	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/memberships"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/auth"
	"github.com/Spok95/cowork-booking/internal/infra/cache"
	"github.com/Spok95/cowork-booking/internal/infra/chat"
	"github.com/Spok95/cowork-booking/internal/infra/db"
	httpx "github.com/Spok95/cowork-booking/internal/infra/http"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
	"github.com/Spok95/cowork-booking/internal/infra/metrics"
	"github.com/Spok95/cowork-booking/internal/infra/mq"
	"github.com/Spok95/cowork-booking/internal/infra/notify"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/wizard"
	"github.com/Spok95/cowork-booking/migrations"
)

func main() {
	path := os.Getenv("APP_CONFIG")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	tz, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", "timezone", cfg.App.Timezone, "err", err)
		tz = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Up(ctx, cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	rec := metrics.New(prometheus.DefaultRegisterer)

	var refCache catalog.Cache
	if cfg.Redis.Addr != "" {
		rdb := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, reference cache disabled", "err", err)
		} else {
			refCache = cache.NewReference(rdb, cfg.Redis.TTL)
			log.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}

	var events checkout.EventPublisher = mq.Nop{}
	if cfg.AMQP.URL != "" {
		pub, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn("amqp unavailable, events disabled", "err", err)
		} else {
			defer func() { _ = pub.Close() }()
			events = pub
			log.Info("amqp connected", "exchange", cfg.AMQP.Exchange)
		}
	}

	catalogSvc := catalog.NewService(catalog.NewRepo(pool), refCache, log)
	pricingSvc := locpricing.NewService(locpricing.NewRepo(pool), log)
	bookingSvc := bookings.NewService(bookings.NewRepo(pool), cfg.App.Currency, log)
	membershipSvc := memberships.NewService(memberships.NewRepo(pool), log)
	paymentSvc := payments.NewService(cfg.Payments.BaseURL, payments.NewRepo(pool), log)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	adminSvc := admins.NewService(admins.NewRepo(pool), tokens, log)
	if err := adminSvc.Seed(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash); err != nil {
		log.Error("admin seed failed", "err", err)
		return
	}

	rates := pricing.Rates{
		MeetingRoomHour:       cfg.Pricing.MeetingRoomHourRate,
		GuestPass:             cfg.Pricing.GuestPassRate,
		OnlineDiscountPercent: cfg.Pricing.OnlineDiscountPercent,
	}
	if err := rates.Validate(); err != nil {
		log.Error("invalid pricing config", "err", err)
		return
	}

	wizardSvc := checkout.New(checkout.Deps{
		Sessions: wizard.NewRepo(pool),
		Catalog:  catalogSvc,
		Pricing:  pricingSvc,
		Calc:     pricing.NewCalculator(rates),
		Payments: paymentSvc,
		Bookings: bookingSvc,
		Notifier: notifiers(cfg, log),
		Events:   events,
		Observer: rec,
		Metrics:  rec,
		Currency: cfg.App.Currency,
		Log:      log,
	})

	chatClient := chat.New(chat.Config{
		Endpoint:     cfg.Chat.Endpoint,
		APIKey:       cfg.Chat.APIKey,
		Model:        cfg.Chat.Model,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Timeout:      cfg.Chat.Timeout,
	}, log)
	chatLimiter := httpx.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	loginLimiter := httpx.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	go chatLimiter.Run(ctx)
	go loginLimiter.Run(ctx)

	handler := httpx.NewHandler(httpx.Deps{
		Log:           log,
		Catalog:       catalogSvc,
		Pricing:       pricingSvc,
		Wizard:        wizardSvc,
		Bookings:      bookingSvc,
		Memberships:   membershipSvc,
		Admins:        adminSvc,
		Tokens:        tokens,
		Chat:          chatClient,
		PaymentPage:   payments.NewHandler(log, paymentSvc, cfg.App.PublicURL),
		Metrics:       rec,
		ExposeMetrics: cfg.Metrics.Enabled,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		ChatLimiter:   chatLimiter,
		LoginLimiter:  loginLimiter,
		BusinessName:  cfg.App.BusinessName,
		Timezone:      tz,
	})
	if !chatClient.Enabled() {
		log.Warn("chat endpoint not configured, assistant replies with 503")
	}

	go purgeSessions(ctx, log, wizardSvc, cfg.Wizard.SessionTTL, cfg.Wizard.PurgeInterval)

	srv := httpx.New(cfg.HTTP.Addr, handler)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wizardSvc.Wait()
	log.Info("graceful shutdown complete")
}

func notifiers(cfg config.Config, log *slog.Logger) notify.Notifier {
	var out notify.Multi
	if cfg.Email.Endpoint != "" {
		out = append(out, notify.NewEmail(cfg.Email.Endpoint, cfg.Email.APIKey, cfg.Email.From))
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Warn("telegram unavailable, admin alerts disabled", "err", err)
		} else {
			out = append(out, tg)
		}
	}
	if len(out) == 0 {
		log.Warn("no notification channel configured")
		return notify.Nop{}
	}
	return out
}

func purgeSessions(ctx context.Context, log *slog.Logger, svc *checkout.Service, ttl, every time.Duration) {
	if ttl <= 0 || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.PurgeStale(ctx, ttl)
			if err != nil {
				log.Error("session purge failed", "err", err)
				continue
			}
			if n > 0 {
				log.Info("stale sessions purged", "count", n)
			}
		}
	}
}
