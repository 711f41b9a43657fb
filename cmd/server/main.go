package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/assessment"
	"github.com/jgirmay/concept-explainer/internal/common/database"
	commonHandlers "github.com/jgirmay/concept-explainer/internal/common/handlers"
	"github.com/jgirmay/concept-explainer/internal/common/health"
	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/middleware"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/common/validation"
	"github.com/jgirmay/concept-explainer/internal/explain"
	"github.com/jgirmay/concept-explainer/internal/llm"
	"github.com/jgirmay/concept-explainer/internal/retrieval"
	"github.com/jgirmay/concept-explainer/internal/tutor/handlers"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/repository"
	"github.com/jgirmay/concept-explainer/internal/tutor/services"
	"github.com/jgirmay/concept-explainer/pkg/auth"
	"github.com/jgirmay/concept-explainer/pkg/config"
	"github.com/jgirmay/concept-explainer/pkg/logger"
)

const (
	serviceName     = "concept-explainer"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Server.Env, cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	lg := logger.L()

	// Initialize database (SQLite for development, PostgreSQL for production)
	if cfg.Database.Type == "sqlite" && cfg.Database.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if err := database.InitWithType(cfg.Database.Type, cfg.Database.DSN, cfg.Server.Env); err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(models.All()...); err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, serviceName, cfg.Server.Version, lg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	m := metrics.New()

	gen, err := llm.New(ctx, cfg.LLM, lg, m)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if cfg.Auth.Mode == "none" {
		if _, err := repository.EnsureStudent(&models.Student{
			ID:       middleware.DemoStudentID,
			Username: middleware.DemoUsername,
			Email:    "demo@example.com",
		}); err != nil {
			return fmt.Errorf("failed to create demo student: %w", err)
		}
		lg.Warn("authentication disabled, all requests run as the demo student")
	}

	// Pipeline components
	explainer := explain.NewExplainer(
		gen,
		retrieval.NewKeywordExtractor(gen, lg),
		retrieval.NewFromConfig(cfg.Retrieval, lg, m),
		lg,
		m,
	)
	flashcards := explain.NewFlashcardGenerator(gen, lg)
	coach := explain.NewFeynmanCoach(gen, lg)
	quizzes := assessment.NewGenerator(gen, lg, m)

	tutor := handlers.Handlers{
		Auth:     handlers.NewAuthHandler(services.NewAuthService(tokens, lg)),
		Explain:  handlers.NewExplainHandler(services.NewExplainService(explainer, flashcards, coach, lg)),
		Quiz:     handlers.NewQuizHandler(services.NewQuizService(quizzes, lg, m)),
		Progress: handlers.NewProgressHandler(services.NewProgressService()),
	}

	// Create Gin engine
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.InstallGinValidator()
	router := gin.New()

	// Apply middleware
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.ErrorHandler(lg))
	router.Use(middleware.RequestLogger(lg.Named("http")))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(m.Middleware())

	healthChecker := health.NewHealthChecker(database.GetDB(), cfg.Server.Version, gen != nil)
	commonHandlers.NewHealthHandler(healthChecker).RegisterRoutes(router)
	router.GET("/metrics", m.Handler())

	handlers.RegisterRoutes(router, middleware.Authenticate(cfg.Auth.Mode, tokens), tutor)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.String("database", cfg.Database.Type),
			zap.String("auth_mode", cfg.Auth.Mode),
			zap.Bool("llm_configured", gen != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
