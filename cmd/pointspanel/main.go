package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/pointspanel/internal/adapter/driven/github"
	ledgeradapter "github.com/ericfisherdev/pointspanel/internal/adapter/driven/ledger"
	"github.com/ericfisherdev/pointspanel/internal/adapter/driven/schemafile"
	sqliteadapter "github.com/ericfisherdev/pointspanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/pointspanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/pointspanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/pointspanel/internal/application"
	"github.com/ericfisherdev/pointspanel/internal/config"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
	"github.com/ericfisherdev/pointspanel/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations on the writer connection.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	credentialStore, err := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "credentials":
			return runCredentials(ctx, credentialStore, args[1:], os.Stdin, os.Stdout)
		case "import":
			return runImport(ctx, db, args[1:])
		default:
			return fmt.Errorf("unknown command %q (want credentials or import)", args[0])
		}
	}

	return serve(ctx, cfg, db, credentialStore)
}

func serve(ctx context.Context, cfg *config.Config, db *sqliteadapter.DB, credentialStore driven.CredentialStore) error {
	// 4. Resolve tokens: stored credentials take priority over env vars.
	ledgerToken := resolveToken(ctx, credentialStore, sqliteadapter.ServiceLedger, cfg.LedgerToken)
	ghToken := resolveToken(ctx, credentialStore, sqliteadapter.ServiceGitHub, cfg.GitHubToken)

	// 5. Wire driven adapters.
	ledger, err := ledgeradapter.NewClient(cfg.LedgerURL, ledgerToken)
	if err != nil {
		return err
	}
	ghClient := githubadapter.NewClient(ghToken)

	schemas, err := schemafile.Load(cfg.SchemaPath)
	if err != nil {
		return err
	}
	schemas.Register(githubadapter.PullRequestSchema())
	slog.Info("schemas loaded", "path", cfg.SchemaPath, "document_types", schemas.DocumentTypes())

	documents := application.NewDocumentRouter(sqliteadapter.NewDocumentRepo(db))
	documents.Route(githubadapter.DocumentType, ghClient)
	directory := application.DirectoryChain{sqliteadapter.NewUserRepo(db), ghClient}

	// 6. Wire application services.
	budget := application.NewBudgetTracker(ledger, cfg.User)
	events := application.NewTimelineEvents()
	names := application.NewDisplayNames(directory)
	sessions := application.NewSessionRegistry()
	reviewSvc := application.NewReviewService(
		documents,
		schemas,
		ledger,
		budget,
		application.NewReviewSubmitter(ledger, budget, cfg.SubmitTimeout),
		application.NewHistoryReconciler(budget, events, names),
		sessions,
		cfg.AdminUser,
	)
	healthSvc := application.NewHealthService(ledger, budget, sessions)

	poller := application.NewBalancePoller(budget, sessions.LastActivity, cfg.BalanceRefreshInterval)
	go poller.Start(ctx)

	// 7. Register API and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(reviewSvc, healthSvc, poller, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(reviewSvc, names, events, slog.Default()))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.SubmitTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("pointspanel started",
		"listen_addr", cfg.ListenAddr,
		"user", cfg.User,
		"ledger", cfg.LedgerURL,
		"balance_refresh_interval", cfg.BalanceRefreshInterval,
	)

	// 8. Wait for shutdown signal or a server failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// resolveToken prefers a stored credential over the env value.
func resolveToken(ctx context.Context, store driven.CredentialStore, service, envValue string) string {
	stored, err := store.Get(ctx, service)
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return envValue
	case err != nil:
		slog.Warn("stored credential unreadable, using environment", "service", service, "error", err)
		return envValue
	case stored != "":
		slog.Info("using stored credential", "service", service)
		return stored
	default:
		return envValue
	}
}
