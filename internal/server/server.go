package server

import (
	"context"
	"net/http"
	"time"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/config"
	"github.com/pizzanet/pizza-service/internal/franchises"
	"github.com/pizzanet/pizza-service/internal/http/handlers"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/middleware"
	"github.com/pizzanet/pizza-service/internal/orders"
	"github.com/pizzanet/pizza-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
	cfg   config.Config
	auth  *auth.Service
}

// New wires up services, middleware, and routes, and returns a ready server.
func New(cfg config.Config, log *zap.Logger, store storage.Store, sessions auth.SessionStore, factoryClient orders.FactoryClient) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	authSvc := auth.NewService(store, tokens, sessions, log.Named("auth"))
	franchiseSvc := franchises.NewService(store, store, log.Named("franchises"))
	orderSvc := orders.NewService(store, store, factoryClient, log.Named("orders"))

	authn := middleware.NewAuthenticator(authSvc)

	mux := http.NewServeMux()
	handlers.NewAuthHandler(authSvc).Register(mux)
	handlers.NewUserHandler(authSvc).Register(mux, authn)
	handlers.NewFranchiseHandler(franchiseSvc).Register(mux, authn)
	handlers.NewOrderHandler(orderSvc).Register(mux, authn)

	s := &Server{cfg: cfg, auth: authSvc}
	startedAt := time.Now()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/docs", s.handleDocs)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"uptime": time.Since(startedAt).Truncate(time.Second).String(),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		respond.Message(w, http.StatusNotFound, "unknown endpoint")
	})

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Metrics(middleware.Logging(log.Named("http"), mux)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.inner = httpServer
	return s
}

// Auth exposes the auth service for startup bootstrap.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

// Handler returns the configured root handler; tests serve it directly.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "welcome to JWT Pizza",
		"version": s.cfg.Version,
	})
}

type endpointDoc struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth"`
	Description  string `json:"description"`
}

var endpointDocs = []endpointDoc{
	{http.MethodPost, "/api/auth", false, "Register a new user"},
	{http.MethodPut, "/api/auth", false, "Login existing user"},
	{http.MethodDelete, "/api/auth", true, "Logout a user"},
	{http.MethodGet, "/api/user/me", true, "Get authenticated user"},
	{http.MethodPut, "/api/user/{userId}", true, "Update user"},
	{http.MethodGet, "/api/order/menu", false, "Get the pizza menu"},
	{http.MethodPut, "/api/order/menu", true, "Add an item to the menu"},
	{http.MethodGet, "/api/order", true, "Get the orders for the authenticated user"},
	{http.MethodPost, "/api/order", true, "Create an order for the authenticated user"},
	{http.MethodGet, "/api/franchise", false, "List all the franchises"},
	{http.MethodGet, "/api/franchise/{userId}", true, "List a user's franchises"},
	{http.MethodPost, "/api/franchise", true, "Create a new franchise"},
	{http.MethodDelete, "/api/franchise/{franchiseId}", true, "Delete a franchise"},
	{http.MethodPost, "/api/franchise/{franchiseId}/store", true, "Create a new franchise store"},
	{http.MethodDelete, "/api/franchise/{franchiseId}/store/{storeId}", true, "Delete a store"},
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"version":   s.cfg.Version,
		"endpoints": endpointDocs,
		"config": map[string]string{
			"factory": s.cfg.FactoryURL,
			"store":   s.cfg.StoreBackend,
		},
	})
}
