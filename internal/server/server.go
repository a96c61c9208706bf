package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/Tomlord1122/todolist/internal/cache"
	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var staticFiles = mustSub(staticFS, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}
	return sub
}

// HealthChecker reports the state of the backing store.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	port        int
	listService service.ListService
	db          HealthChecker
	cache       cache.ListCache
	logger      *zap.Logger
}

func NewServer(cfg config.HTTPConfig, listService service.ListService, db HealthChecker, c cache.ListCache, logger *zap.Logger) *http.Server {
	if c == nil {
		c = cache.Noop{}
	}
	appServer := &Server{
		port:        cfg.Port,
		listService: listService,
		db:          db,
		cache:       c,
		logger:      logger,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  cfg.IdleTimeout.Duration(),
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}

	return server
}
