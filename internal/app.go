package internal

import (
	"context"
	"strings"

	"bithub/internal/cache"
	"bithub/internal/coinbase"
	"bithub/internal/db"
	"bithub/internal/env"
	"bithub/internal/events"
	"bithub/internal/githubclient"
	"bithub/internal/githubhooks"
	"bithub/internal/ingress"
	"bithub/internal/payout"
	"bithub/internal/policy"
	"bithub/internal/status"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/shopspring/decimal"
)

// Deps are the collaborators NewApp routes requests to.
type Deps struct {
	Guard    *ingress.Guard
	Engine   githubhooks.PushHandler
	Status   status.Reader
	Settings status.Settings
	Version  string
}

// NewApp builds the HTTP surface around already constructed components.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "bithub",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	v1 := app.Group("/v1")

	v1.Get("/ping", func(c fiber.Ctx) error {
		return c.SendString("PONG")
	})

	v1.Get("/version", func(c fiber.Ctx) error {
		return c.SendString("v" + deps.Version)
	})

	githubhooks.Routes(v1, deps.Guard, deps.Engine)
	status.Routes(v1, deps.Status, deps.Settings)

	return app
}

// SetupApp loads the environment, connects the stores and providers,
// populates the status cache and returns the app with a shutdown func.
func SetupApp(deployment string, envRoot string, appVersion string) (*fiber.App, func()) {
	env.Init(envRoot, appVersion)

	if err := env.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	deploy := strings.TrimSpace(deployment)

	if err := db.InitDB(deploy); err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}

	if err := db.InitCache(); err != nil {
		log.Warnf("Could not connect to Redis, status mirror disabled: %v", err)
	}

	if db.Events != nil {
		events.Em = events.NewEmitter(db.Events, deploy)
	} else {
		events.Em = nil
	}

	pol, err := policy.Load(env.REPOSITORIES, env.REPOSITORIES_FILE)
	if err != nil {
		log.Fatalf("invalid repositories: %v", err)
	}

	payoutRate, err := decimal.NewFromString(env.PAYOUT_RATE)
	if err != nil {
		log.Fatalf("invalid PAYOUT_RATE %q: %v", env.PAYOUT_RATE, err)
	}

	payments := coinbase.New(coinbase.Config{
		BaseURL:   env.COINBASE_API_URL,
		APIKey:    env.COINBASE_API_KEY,
		APISecret: env.COINBASE_API_SECRET,
	})

	source, err := githubclient.New(env.GITHUB_TOKEN, env.GITHUB_API_URL)
	if err != nil {
		log.Fatalf("invalid github client: %v", err)
	}

	guard, err := ingress.New(ingress.Config{
		Username:     env.WEBHOOK_USERNAME,
		Password:     env.WEBHOOK_PASSWORD,
		PasswordHash: env.WEBHOOK_PASSWORD_HASH,
		TrustedCIDRs: env.TRUSTED_CIDRS,
	})
	if err != nil {
		log.Fatalf("invalid webhook guard: %v", err)
	}

	engine := payout.NewEngine(payout.Config{
		PayoutRate: payoutRate,
		DefaultRef: env.DEFAULT_REF,
	}, pol, payments, source)

	var opts []cache.Option
	if db.RDB != nil {
		opts = append(opts, cache.WithPublisher(cache.NewRedisMirror(db.RDB, 0)))
	}

	manager := cache.NewManager(cache.Config{
		Interval:     env.CACHE_REFRESH_INTERVAL,
		PayoutRate:   payoutRate,
		Repositories: pol.URLs(),
	}, payments, source, opts...)

	if err := manager.Start(context.Background()); err != nil {
		log.Fatalf("Could not populate status cache: %v", err)
	}

	app := NewApp(Deps{
		Guard:  guard,
		Engine: engine,
		Status: manager,
		Settings: status.Settings{
			RepositoryURLs: pol.URLs(),
			DonationCode:   env.COINBASE_DONATION_CODE,
			Organization:   env.ORGANIZATION_NAME,
			DonationURL:    env.DONATION_URL,
		},
		Version: env.VERSION,
	})

	shutdown := func() {
		manager.Stop()
		events.Em.Close()
		db.Close()
	}

	return app, shutdown
}
