package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/admin-app/admin-api/internal/auth"
	"github.com/admin-app/admin-api/internal/observability"
	"github.com/admin-app/admin-api/internal/products"
	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/roles"
	"github.com/admin-app/admin-api/internal/users"
)

// Services holds the wired domain services shared by the HTTP server and the CLI.
type Services struct {
	Users    *users.Service
	RBAC     *rbac.Service
	Auth     *auth.Service
	Products *products.Service
	Tokens   *auth.TokenService
	Metrics  *observability.Metrics
}

// NewServices wires repositories and services. redisClient may be nil, which disables
// login throttling.
func NewServices(cfg *Config, logger *slog.Logger, pool *pgxpool.Pool, redisClient redis.UniversalClient) (*Services, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	hasher := auth.NewHasher(cfg.BcryptCost)
	userService := users.NewService(users.NewRepository(pool), hasher, cfg.DefaultRole)
	throttle := auth.NewThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow, logger)
	authService, err := auth.NewService(userService, hasher, tokens, throttle, metrics)
	if err != nil {
		return nil, err
	}

	return &Services{
		Users:    userService,
		RBAC:     rbac.NewService(rbac.NewRepository(pool)),
		Auth:     authService,
		Products: products.NewService(products.NewRepository(pool)),
		Tokens:   tokens,
		Metrics:  metrics,
	}, nil
}

// RouterParams builds the HTTP handlers over s.
func (s *Services) RouterParams(cfg *Config, logger *slog.Logger) RouterParams {
	authn := auth.Middleware{Tokens: s.Tokens, Users: s.Users, Metrics: s.Metrics, Logger: logger}
	gate := rbac.Middleware{Service: s.RBAC, Logger: logger}
	cookies := auth.CookieOptions{Development: cfg.IsDevelopment(), MaxAge: cfg.TokenTTL}

	return RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, s.Auth, authn.Require, cookies),
		UsersHandler:       users.NewHandler(logger, s.Users, authn.Require, gate),
		RolesHandler:       roles.NewHandler(logger, s.RBAC, authn.Require, gate),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, s.RBAC, authn.Require, gate),
		ProductsHandler:    products.NewHandler(logger, s.Products, authn.Require, gate),
		Metrics:            s.Metrics,
	}
}
