package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portal-web/cv/editor"
	"portal-web/cv/render"
	"portal-web/internal/analytics"
	"portal-web/internal/backend"
	"portal-web/internal/content"
	"portal-web/internal/cvs"
	"portal-web/internal/membership"
	"portal-web/internal/ordering"
	"portal-web/internal/profile"
	"portal-web/internal/services/health"
	"portal-web/internal/session"
	"portal-web/internal/shared/config"
	"portal-web/internal/shared/server"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/storage/db"
	"portal-web/internal/shared/storage/object"
	localstore "portal-web/internal/shared/storage/object/local"
	s3store "portal-web/internal/shared/storage/object/s3"
	"portal-web/internal/shared/telemetry"
)

const (
	janitorInterval = 5 * time.Minute
	limiterIdle     = 30 * time.Minute
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Archive  object.ObjectStore
	Backend  *backend.Client
	Sessions *session.Service
	Editor   *editor.Service
	CVs      *cvs.Service
	Content  *content.Service
	Ordering *ordering.Service
	Profiles *profile.Service
	Limiter  *middleware.RateLimiter
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.SessionCookie) == "" {
		cfg.SessionCookie = session.DefaultCookieName
	}
	if err := telemetry.SetLevel(cfg.LogLevel); err != nil {
		log.Printf("bootstrap: invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := backend.New(cfg.APIBaseURL, cfg.BackendTimeout)
	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Archive: archive,
		Backend: client,
	}
	app.Router = buildRouter(app)
	return app, nil
}

// Start runs background janitors until ctx is done.
func (a *App) Start(ctx context.Context) {
	go a.Editor.RunJanitor(ctx, janitorInterval)
	go a.Sessions.RunJanitor(ctx, janitorInterval)
	go a.Limiter.RunJanitor(ctx, janitorInterval, limiterIdle)
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildRouter(app *App) *gin.Engine {
	cfg := app.Config
	client := app.Backend

	var sessionRepo session.Repo = session.NewMemoryRepo()
	healthSvc := health.NewService(nil)
	if app.DB != nil {
		sessionRepo = &session.PGRepo{DB: app.DB}
		healthSvc = health.NewService(app.DB)
	}
	app.Sessions = session.NewService(sessionRepo, client, cfg.SessionTTL)

	app.Editor = editor.NewService(
		editor.NewMemoryStore(),
		func(token string) editor.Gateway { return client.WithToken(token) },
		render.NewRenderer(cfg.AssetBaseURL),
		cfg.DraftTTL,
	)
	app.CVs = cvs.NewService(func(token string) cvs.Gateway { return client.WithToken(token) }, app.Archive)
	app.Content = content.NewService(func(token string) content.Gateway { return client.WithToken(token) })
	app.Ordering = ordering.NewService(func(token string) ordering.Gateway { return client.WithToken(token) })
	app.Profiles = profile.NewService(func(token string) profile.Gateway { return client.WithToken(token) })

	app.Limiter = middleware.NewRateLimiter(nil)

	editorHandler := editor.NewHandler(app.Editor)
	editorHandler.AllowOrigins(cfg.CORSAllowOrigin)
	membershipHandler := membership.NewHandler(func(token string) membership.Gateway {
		return client.WithToken(token)
	})

	return server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Sessions:          app.Sessions,
		SessionHandler:    session.NewHandler(app.Sessions, session.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.CookieSecure}),
		EditorHandler:     editorHandler,
		CVHandler:         cvs.NewHandler(app.CVs),
		ContentHandler:    content.NewHandler(app.Content),
		OrderingHandler:   ordering.NewHandler(app.Ordering),
		MembershipHandler: membershipHandler,
		ProfileHandler:    profile.NewHandler(app.Profiles),
		AnalyticsHandler:  analytics.NewHandler(client),
		RateLimiter:       app.Limiter,
		Health:            healthSvc,
	})
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory sessions")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory sessions: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

// buildArchive returns nil when export archiving is off.
func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if !cfg.ArchiveExports {
		return nil, nil
	}
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
