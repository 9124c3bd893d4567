package main

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/caracol-studio/formgate/adapters/altcha"
	"github.com/caracol-studio/formgate/adapters/cap"
	"github.com/caracol-studio/formgate/adapters/content"
	"github.com/caracol-studio/formgate/adapters/events"
	"github.com/caracol-studio/formgate/adapters/recaptcha"
	"github.com/caracol-studio/formgate/adapters/replay"
	"github.com/caracol-studio/formgate/config"
	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/internal/logger"
	"github.com/caracol-studio/formgate/ports"
	"github.com/caracol-studio/formgate/service"
	transport "github.com/caracol-studio/formgate/transport/http"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logger.NewJSON(logger.LevelFromEnv(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	var verifier ports.Verifier
	var issuer ports.ChallengeIssuer

	switch cfg.Provider {
	case config.ProviderAltcha:
		a := altcha.New(cfg.AltchaHMACKey)
		verifier, issuer = a, a
	case config.ProviderCap:
		verifier = cap.New(cfg.CapAPIURL, cfg.CapSiteKey, cfg.CapSecretKey)
	case config.ProviderRecaptcha:
		r, err := recaptcha.New(cfg.RecaptchaBaseURL, cfg.RecaptchaSecretKey, cfg.RecaptchaMinScore)
		if err != nil {
			log.Fatalf("invalid recaptcha configuration: %v", err)
		}
		verifier = r
	}

	var guard ports.ReplayGuard
	var publisher ports.EventPublisher

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		guard = replay.NewRedis(redisClient, core.ChallengeExpiry)

		wmPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("failed to create event publisher: %v", err)
		}
		publisher = events.NewWatermillPublisher(wmPublisher)
	} else {
		guard = replay.NewMemory(ctx, core.ChallengeExpiry)
	}

	var store ports.ContentStore
	if cfg.CMSBaseURL != "" {
		store = content.NewCMS(cfg.CMSBaseURL, cfg.CMSAPISecret)
	} else {
		lg.Warn("no CMS configured, storing messages in memory")
		store = content.NewMemory()
	}

	pipeline := service.NewPipeline(verifier, guard, store, publisher, lg)
	router := transport.SetupRouter(pipeline, issuer, lg)

	lg.Info("starting formgate", "addr", cfg.ListenAddr, "provider", cfg.Provider)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
