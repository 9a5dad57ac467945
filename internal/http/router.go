package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kamaumbugua/userhub/internal/auth"
	"github.com/kamaumbugua/userhub/internal/config"
	"github.com/kamaumbugua/userhub/internal/http/handlers"
	"github.com/kamaumbugua/userhub/internal/http/middlewares"
	"github.com/kamaumbugua/userhub/internal/observability"
	"github.com/kamaumbugua/userhub/internal/repo/postgres"
	"github.com/kamaumbugua/userhub/internal/session"
	"github.com/kamaumbugua/userhub/internal/shield"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// observability

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("userhub"))
	r.Use(prom.GinHandleMiddleware())

	// health + metrics stay outside the shield

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// request protection

	var protector shield.Protector

	if cfg.ShieldRedisAddr != "" {
		protector = shield.NewRedisProtector(shield.RedisConfig{
			Addr:     cfg.ShieldRedisAddr,
			Password: cfg.ShieldRedisPass,
			DB:       cfg.ShieldRedisDB,
			Requests: cfg.ShieldRequests,
			Window:   cfg.ShieldWindow,
		})
		log.Info("shield using redis provider", "addr", cfg.ShieldRedisAddr)
	} else {
		protector = shield.NewLocalProtector(cfg.ShieldRequests, cfg.ShieldWindow)
	}

	guarded := r.Group("/", middlewares.Shield(protector, prom.ShieldDecisions))

	// wire up repositories and services

	usersRepo := postgres.NewUsersRepo(pool, prom)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	sessions := session.NewTransport(cfg.Env == "prod", cfg.JWTTTL)

	authMiddleware := middlewares.NewAuthMiddleware(jwtManager, usersRepo, sessions)
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, sessions, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo)

	authRoutes := guarded.Group("/auth")
	authRoutes.POST("/sign-up", authHandler.SignUp)
	authRoutes.POST("/sign-in", authHandler.SignIn)
	authRoutes.POST("/sign-out", authHandler.SignOut)
	authRoutes.GET("/me", authMiddleware.Authenticate(), authHandler.Me)

	userRoutes := guarded.Group("/users", authMiddleware.Authenticate())
	userRoutes.GET("", usersHandler.ListUsers)
	userRoutes.GET("/:id", usersHandler.GetUserByID)
	userRoutes.PUT("/:id", usersHandler.UpdateUser)
	userRoutes.DELETE("/:id", usersHandler.DeleteUser)

	return r
}
