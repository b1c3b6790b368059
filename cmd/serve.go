package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/cache"
	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/internal/resolver"
	"github.com/sells-group/toolscout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		handler := buildRouter(env, cfg.Server.CORSOrigins)
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

type searchRequest struct {
	Query    string `json:"query"`
	Min      *int   `json:"min_results,omitempty"`
	Max      *int   `json:"max_results,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Remember *bool  `json:"remember,omitempty"`
}

func (r searchRequest) options() []resolver.Option {
	var opts []resolver.Option
	if r.Min != nil {
		opts = append(opts, resolver.WithMinResults(*r.Min))
	}
	if r.Max != nil {
		opts = append(opts, resolver.WithMaxResults(*r.Max))
	}
	if r.Mode != "" {
		opts = append(opts, resolver.WithMode(model.ParseMode(r.Mode)))
	}
	return opts
}

type toolsResponse struct {
	Query      string       `json:"query"`
	Tools      []model.Tool `json:"tools"`
	Remembered bool         `json:"remembered,omitempty"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Cache  *cache.Stats `json:"cache,omitempty"`
}

type recentResponse struct {
	Queries []string `json:"queries"`
}

// buildRouter wires the API routes. A nil env serves health checks and
// rejects searches.
func buildRouter(env *appEnv, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if env != nil && env.Cache != nil {
			stats := env.Cache.Stats()
			resp.Cache = &stats
		}
		writeJSON(w, http.StatusOK, resp)
	})

	if env != nil && env.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(env.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
			var req searchRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if strings.TrimSpace(req.Query) == "" {
				writeError(w, http.StatusBadRequest, "query is required")
				return
			}
			if env == nil {
				writeError(w, http.StatusServiceUnavailable, "search is not configured")
				return
			}

			remember := req.Remember == nil || *req.Remember
			tools, err := env.search(r.Context(), req.Query, remember, req.options()...)
			if err != nil {
				writeResolveError(w, req.Query, err)
				return
			}
			writeJSON(w, http.StatusOK, toolsResponse{Query: strings.TrimSpace(req.Query), Tools: nonNil(tools)})
		})

		r.Get("/recent", func(w http.ResponseWriter, r *http.Request) {
			limit := store.DefaultRecentLimit
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := parsePositive(v)
				if err != nil {
					writeError(w, http.StatusBadRequest, "limit must be a positive integer")
					return
				}
				limit = n
			}
			if env == nil {
				writeJSON(w, http.StatusOK, recentResponse{Queries: []string{}})
				return
			}

			queries, err := env.recent(r.Context(), limit, r.URL.Query().Get("filter"))
			if err != nil {
				zap.L().Error("recent searches failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not load recent searches")
				return
			}
			if queries == nil {
				queries = []string{}
			}
			writeJSON(w, http.StatusOK, recentResponse{Queries: queries})
		})

		r.Get("/recall", func(w http.ResponseWriter, r *http.Request) {
			q := strings.TrimSpace(r.URL.Query().Get("q"))
			if q == "" {
				writeError(w, http.StatusBadRequest, "q is required")
				return
			}
			if env == nil {
				writeError(w, http.StatusServiceUnavailable, "search is not configured")
				return
			}

			tools, remembered, err := env.recall(r.Context(), q)
			if err != nil {
				writeResolveError(w, q, err)
				return
			}
			writeJSON(w, http.StatusOK, toolsResponse{Query: q, Tools: nonNil(tools), Remembered: remembered})
		})
	})

	return r
}

func writeResolveError(w http.ResponseWriter, query string, err error) {
	if eris.Is(err, resolver.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	zap.L().Error("search failed", zap.String("query", query), zap.Error(err))
	writeError(w, http.StatusBadGateway, "search provider failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(tools []model.Tool) []model.Tool {
	if tools == nil {
		return []model.Tool{}
	}
	return tools
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, eris.Errorf("invalid positive integer %q", s)
	}
	return n, nil
}

// startServer serves handler on port until ctx is cancelled, then shuts
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
