package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/exchange"
	"github.com/vincentlearning/token-gateway/iam"
	"github.com/vincentlearning/token-gateway/internal/config"
)

// Server is the HTTP front of the token-exchange gateway. It owns the
// outbound IAM client provider and the exchange pipeline built on it.
type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	exchange *exchange.Service
	provider *iam.ClientProvider
}

// New builds the gateway: the secure IAM client, its certificate
// watcher (armed only for mutual TLS), and the request routes.
func New(cfg config.Config) (*Server, error) {
	provider, err := iam.NewClientProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create iam client provider: %w", err)
	}
	provider.StartWatching()

	iamClient := iam.NewClient(provider, cfg.GetIamMaxInMemorySize())

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		exchange: exchange.NewService(cfg.GetIamClientID(), iamClient),
		provider: provider,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Close stops the certificate watcher.
func (s *Server) Close() {
	s.provider.Stop()
}

// Provider exposes the IAM client provider, mainly so tests can observe
// rotations.
func (s *Server) Provider() *iam.ClientProvider {
	return s.provider
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc(RouteToken, ChainMiddleware(
		s.TokenHandler(),
		s.RecoverMiddleware,
		s.AccessLogMiddleware,
	))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Info().Str("route", route).Msg("registered route")
	}
}
