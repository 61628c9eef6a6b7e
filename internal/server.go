package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kev1903/skrobakios/internal/config"
	"github.com/kev1903/skrobakios/internal/project"
	"github.com/kev1903/skrobakios/internal/session"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/clog"
	"github.com/kev1903/skrobakios/pkg/storage"
)

type Server struct {
	server        *http.Server
	env           *config.Env
	storage       storage.Storage
	projectServer *project.Server
	sessionServer *session.Server
}

func NewServer(
	env *config.Env,
	store storage.Storage,
	projectServer *project.Server,
	sessionServer *session.Server,
) *Server {
	return &Server{
		env:           env,
		storage:       store,
		projectServer: projectServer,
		sessionServer: sessionServer,
	}
}

// Handler builds the full handler chain: routes, API key check, CORS and h2c.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		s.projectServer.Routes(r)
		s.sessionServer.Routes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(&storageChecker{storage: s.storage}, connect.WithInterceptors(s.interceptors()...)))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx is the base context of every
// request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// storageChecker reports serving while the task store answers.
type storageChecker struct {
	storage storage.Storage
}

func (c *storageChecker) Check(ctx context.Context, _ *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	if _, err := c.storage.Exists(ctx, "projects"); err != nil {
		slog.WarnContext(ctx, "storage health check failed", "error", err)
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/grpc.health.v1.Health/") {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
