// Package server assembles the wallet from configuration and runs its HTTP
// and gRPC endpoints until the process is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/server/config"
	"github.com/dmitrijs2005/gopherwallet/internal/server/gateway"
	"github.com/dmitrijs2005/gopherwallet/internal/server/metrics"
	"github.com/dmitrijs2005/gopherwallet/internal/server/receipts"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopherwallet/internal/server/services"
	"github.com/dmitrijs2005/gopherwallet/internal/server/session"

	gs "github.com/dmitrijs2005/gopherwallet/internal/server/grpc"
	wh "github.com/dmitrijs2005/gopherwallet/internal/server/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *http.Server
	grpc   *gs.GRPCServer
}

// NewApp wires every component from c. With no database DSN the wallet runs
// on in-memory repositories; with no bucket receipts are not archived.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "configuration loaded", "config", c.Redacted())

	repos, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	var archive receipts.Archive = receipts.NopArchive{}
	if c.S3Bucket != "" {
		archive, err = receipts.NewS3Archive(ctx, receipts.Settings{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
		})
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("receipt archive init error: %w", err)
		}
	}

	mx := metrics.New()
	gw := gateway.NewClient(c.GatewayBaseURL, c.GatewaySecretKey, c.GatewayTimeout)
	plans := services.DefaultPlanCatalog()
	callbackURL := strings.TrimRight(c.PublicBaseURL, "/") + "/fund/callback"

	handler := wh.NewHandler(wh.Deps{
		Accounts:      services.NewAccountService(repos, logger),
		Funding:       services.NewFundingService(repos, gw, archive, mx, callbackURL, logger),
		Purchases:     services.NewPurchaseService(repos, plans, mx, logger),
		Plans:         plans,
		Sessions:      session.NewManager([]byte(c.SecretKey), c.SessionValidityDuration),
		Metrics:       mx,
		Logger:        logger,
		PublicBaseURL: c.PublicBaseURL,
	})

	return &App{
		config: c,
		logger: logger,
		repos:  repos,
		http: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpc: gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}, nil
}

func openRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory storage")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := repomanager.Connect(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return m, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.logger.Info(shutdownCtx, "Stopping HTTP server...")
		if err := app.http.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then shuts both down and closes storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "close storage", "error", err)
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
	app.logger.Info(context.Background(), "App stopped")
}
