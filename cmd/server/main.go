package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/config"
	"github.com/iliyamo/tour-agency-booking/internal/database"
	"github.com/iliyamo/tour-agency-booking/internal/handler"
	"github.com/iliyamo/tour-agency-booking/internal/ledger"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/queue"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
	"github.com/iliyamo/tour-agency-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the public response cache and the rate limiter. A nil
	// client disables both without failing startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	packages := repository.NewPackageRepo(db)
	categories := repository.NewCategoryRepo(db)
	discounts := repository.NewDiscountRepo(db)
	reservations := repository.NewReservationRepo(db)
	stats := repository.NewStatsRepo(db)

	// Longest matching prefix wins, so the admin and agent rules take
	// precedence over the catch-all /v1 rule for authenticated routes.
	guard := auth.NewGuard(cfg.JWTSecret, []auth.Rule{
		{Prefix: "/v1/admin", Roles: []model.Role{model.RoleAdmin}},
		{Prefix: "/v1/agent", Roles: []model.Role{model.RoleAdmin, model.RoleAgent}},
		{Prefix: "/v1/client", Roles: []model.Role{model.RoleClient}},
		{Prefix: "/v1", Roles: []model.Role{model.RoleAdmin, model.RoleAgent, model.RoleClient}},
	})

	bookings := ledger.New(repository.NewLedgerStore(db))

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(packages, categories, discounts)
	clientH := handler.NewClientHandler(bookings, reservations)
	agentH := handler.NewAgentHandler(bookings, reservations)
	packageH := handler.NewPackageHandler(packages, categories)
	discountH := handler.NewDiscountHandler(discounts, packages)
	statsH := handler.NewStatsHandler(stats)
	userAdminH := handler.NewUserAdminHandler(users, tokens)
	categoryH := handler.NewCategoryHandler(categories)

	e := echo.New()
	e.HideBanner = true

	catalog := middleware.NewCatalogCache(config.LoadCacheConfig(), rdb)
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, guard, ratelimit)
	router.RegisterPublic(e, publicH, catalog.Middleware())
	router.RegisterClient(e, clientH, guard, catalog.InvalidateOnWrite())
	router.RegisterAgent(e, agentH, packageH, discountH, statsH, guard, catalog.InvalidateOnWrite())
	router.RegisterAdmin(e, userAdminH, categoryH, agentH, guard, catalog.InvalidateOnWrite())

	// Background consumer for confirmed-reservation events. It runs its
	// own reconnect loop and never brings the server down.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
