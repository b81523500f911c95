// Command gitpix-server runs the paste gateway: an HTTP endpoint that accepts
// base64 image batches and responds with Markdown links to the uploaded files.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/gitpix/gitpix/internal/config"
	"github.com/gitpix/gitpix/internal/github"
	"github.com/gitpix/gitpix/internal/handlers"
	"github.com/gitpix/gitpix/internal/logger"
	"github.com/gitpix/gitpix/internal/server"
	"github.com/gitpix/gitpix/internal/uploader"
	"github.com/gitpix/gitpix/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideGitHubClient(log *slog.Logger) *github.Client {
	return github.NewClient(log, github.DefaultBaseURL, 30*time.Second)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideGitHubClient,
			uploader.NewService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewUploadHandler),

			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Server.APIKey, params.ServerHandlers...)
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
) {
	fmt.Printf("Starting gitpix-server %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := cfg.GitHub.Validate(); err != nil {
				logger.Warn("uploads will fail until the configuration is completed", slog.Any("error", err))
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
