package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/service"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles))))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/health", s.healthHandler)
	r.Get("/about", s.aboutHandler)

	r.Get("/", s.todayHandler)
	r.Post("/", s.addItemHandler)
	r.Post("/delete", s.deleteItemHandler)
	r.Get("/{listName}", s.listHandler)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()

	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()
	if err := s.cache.Ping(ctx); err != nil {
		healthStats["cache"] = "down"
		s.logger.Warn("cache ping failed", zap.Error(err))
	} else {
		healthStats["cache"] = "up"
	}

	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) aboutHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, "about.html", nil)
}

func (s *Server) todayHandler(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, domain.TodayListName)
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "listName")
	// chi matches against RawPath when it is set, leaving the segment escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			http.Error(w, "Invalid list name", http.StatusBadRequest)
			return
		}
		name = unescaped
	}
	if domain.IsToday(name) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.renderList(w, r, name)
}

type listPage struct {
	ListTitle string
	Items     []domain.Item
}

func (s *Server) renderList(w http.ResponseWriter, r *http.Request, name string) {
	view, err := s.listService.Resolve(r.Context(), name)
	if err != nil {
		s.respondWithServiceError(w, err, "resolve list", zap.String("list", name))
		return
	}
	// A list seeded by this request is shown only after a fresh read.
	if view.Created {
		http.Redirect(w, r, listPath(view.Title), http.StatusFound)
		return
	}
	s.render(w, "list.html", listPage{ListTitle: view.Title, Items: view.Items})
}

func (s *Server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	listName := r.PostFormValue("list")

	target, err := s.listService.AddItem(r.Context(), r.PostFormValue("newItem"), listName)
	if err != nil {
		s.respondWithServiceError(w, err, "add item", zap.String("list", listName))
		return
	}
	http.Redirect(w, r, listPath(target), http.StatusFound)
}

func (s *Server) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	listName := r.PostFormValue("listName")

	target, err := s.listService.RemoveItem(r.Context(), r.PostFormValue("checkbox"), listName)
	if err != nil {
		s.respondWithServiceError(w, err, "remove item", zap.String("list", listName))
		return
	}
	s.logger.Debug("deleted checked item", zap.String("list", target))
	http.Redirect(w, r, listPath(target), http.StatusFound)
}

// listPath is the canonical URL of a list page.
func listPath(title string) string {
	if title == domain.TodayListName {
		return "/"
	}
	return "/" + url.PathEscape(title)
}

// respondWithServiceError maps validation failures to 400 and everything
// else, including a missing target list, to a generic 500.
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error, op string, fields ...zap.Field) {
	if service.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// requestLogger is chi's middleware.Logger reworked to emit zap fields.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote", r.RemoteAddr),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
