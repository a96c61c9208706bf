package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todolist/internal/cache"
	"github.com/Tomlord1122/todolist/internal/database"
	"github.com/Tomlord1122/todolist/internal/repository"
	"github.com/Tomlord1122/todolist/internal/server"
	"github.com/Tomlord1122/todolist/internal/service"
)

var (
	skipMigrate bool
	inMemory    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// memoryHealth reports the in-process store as always up.
type memoryHealth struct{}

func (memoryHealth) Health() map[string]string {
	return map[string]string{"status": "up", "message": "in-memory store"}
}

func gracefulShutdown(ctx context.Context, apiServer *http.Server, timeout time.Duration, closers []func() error, done chan<- struct{}) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	// The server has timeout to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("error releasing resource", zap.Error(err))
		}
	}

	logger.Info("server exiting")
	close(done)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		itemRepo repository.ItemRepository
		listRepo repository.ListRepository
		health   server.HealthChecker
		closers  []func() error
	)

	if inMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		itemRepo = repository.NewMemoryItemRepository()
		listRepo = repository.NewMemoryListRepository()
		health = memoryHealth{}
	} else {
		dbService, err := database.New(cfg.DB, cfg.App.IsProduction(), logger)
		if err != nil {
			return err
		}
		closers = append(closers, dbService.Close)

		if !skipMigrate {
			logger.Info("applying database migrations")
			if err := dbService.Migrate(ctx); err != nil {
				_ = dbService.Close()
				return err
			}
		}

		gormDB := dbService.GetDB()
		itemRepo = repository.NewGormItemRepository(gormDB)
		listRepo = repository.NewGormListRepository(gormDB)
		health = dbService
	}

	var listCache cache.ListCache = cache.Noop{}
	rdb, err := cache.Open(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, running without list cache", zap.Error(err))
	} else if rdb != nil {
		listCache = cache.NewRedisListCache(rdb, cfg.Redis.TTL.Duration())
		closers = append(closers, closeRedis(rdb))
		logger.Info("list cache enabled", zap.Duration("ttl", cfg.Redis.TTL.Duration()))
	}

	listService := service.NewListService(itemRepo, listRepo, listCache, logger)
	apiServer := server.NewServer(cfg.HTTP, listService, health, listCache, logger)

	done := make(chan struct{})
	go gracefulShutdown(ctx, apiServer, cfg.HTTP.ShutdownTimeout.Duration(), closers, done)

	logger.Info("starting server", zap.String("addr", apiServer.Addr))
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return err
	}

	<-done
	logger.Info("graceful shutdown complete")
	return nil
}

func closeRedis(rdb *redis.Client) func() error {
	return func() error {
		logger.Info("closing redis client")
		return rdb.Close()
	}
}
