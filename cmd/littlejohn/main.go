// littlejohn: servidor OAuth2/OIDC.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/config"
	"github.com/dropDatabas3/littlejohn/internal/domain/repository"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	authctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/littlejohn/internal/http/controllers/oauth"
	authsvc "github.com/dropDatabas3/littlejohn/internal/http/services/auth"
	oauthsvc "github.com/dropDatabas3/littlejohn/internal/http/services/oauth"
	"github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
	"github.com/dropDatabas3/littlejohn/internal/rate"
	"github.com/dropDatabas3/littlejohn/internal/session"
	"github.com/dropDatabas3/littlejohn/internal/store"
	"github.com/dropDatabas3/littlejohn/internal/store/pg"
)

func main() {
	// .env es opcional; los env vars LJ_* pisan al YAML.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "littlejohn",
		Short: "Servidor OAuth2/OIDC",
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LJ_CONFIG"), "path al YAML de configuración")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath)
		},
	}
	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		ServiceName: "littlejohn",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	st, err := store.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	if mem, ok := st.(*store.Memory); ok && cfg.App.Env == "dev" {
		seedDev(mem)
	}

	// Cache
	var cacheClient cache.Client
	var redisClient *rdb.Client
	switch strings.ToLower(cfg.Cache.Kind) {
	case "", "memory":
		cacheClient = cache.NewMemory(cfg.CacheDefaultTTL())
	case "redis":
		cacheClient = cache.NewRedis(cache.RedisConfig{
			Addr:   cfg.Cache.Redis.Addr,
			DB:     cfg.Cache.Redis.DB,
			Prefix: cfg.Cache.Redis.Prefix,
		})
		redisClient = rdb.NewClient(&rdb.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
	default:
		return fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}
	defer func() { _ = cacheClient.Close() }()

	// Clave de firma del servidor (clients public firman con esta).
	key, err := jwt.NewDevEd25519("littlejohn-dev")
	if err != nil {
		return fmt.Errorf("server key: %w", err)
	}
	issuer := jwt.NewIssuer(cfg.JWT.Issuer, key)
	issuer.TTL = cfg.AccessTTL()

	sessions := &session.Manager{
		Cache:      cacheClient,
		CookieName: cfg.Auth.Session.CookieName,
		TTL:        cfg.SessionTTL(),
		Secure:     cfg.App.Env != "dev",
	}

	// Services
	oauthServices := oauthsvc.NewServices(oauthsvc.Deps{
		Store:             st,
		Cache:             cacheClient,
		Issuer:            issuer,
		AllowSessionGrant: cfg.Auth.AllowSessionGrant,
		AccessTTL:         cfg.AccessTTL(),
		RefreshTTL:        cfg.RefreshTTL(),
	})
	authServices := authsvc.NewServices(authsvc.Deps{Store: st})

	// Métricas
	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Rate limiting por IP en endpoints con credenciales.
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if redisClient != nil {
			limiter = rate.NewRedisLimiter(redisClient, "rl:", cfg.Rate.Max, cfg.RateWindow())
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Max, cfg.RateWindow())
		}
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		OAuth:          oauthctrl.NewControllers(oauthServices, sessions, st),
		Auth:           authctrl.NewControllers(authServices, sessions, st),
		Health:         healthctrl.NewController(st, cacheClient),
		MetricsHandler: metricsHandler,
		JWKSHandler:    jwksHandler(key),
		RateLimiter:    limiter,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("littlejohn up",
		logger.String("env", cfg.App.Env),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("session_grant", cfg.Auth.AllowSessionGrant),
	)
	return g.Wait()
}

func migrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if strings.ToLower(cfg.Storage.Driver) != "postgres" && strings.ToLower(cfg.Storage.Driver) != "pg" {
		return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %q)", cfg.Storage.Driver)
	}
	st, err := pg.New(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

func jwksHandler(key *jwt.ServerKey) http.Handler {
	body := key.JWKSJSON()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(body)
	})
}

// seedDev carga un client y un usuario de prueba en el store en memoria.
func seedDev(mem *store.Memory) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	mem.AddUser(&repository.User{
		Username:      "demo",
		Email:         "demo@example.com",
		EmailVerified: true,
		Name:          "Demo User",
		PasswordHash:  string(hash),
	})
	mem.AddClient(&repository.Client{
		ClientID:     "demo-public",
		Name:         "Demo Public Client",
		Type:         repository.ClientTypePublic,
		Trusted:      true,
		RedirectURIs: []string{"http://localhost:3000/callback"},
	})
	logger.L().Info("dev seed loaded",
		logger.String("user", "demo"),
		logger.ClientID("demo-public"),
	)
}
