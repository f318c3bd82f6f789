package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voinici/quiz-feedback/internal/config"
	"github.com/voinici/quiz-feedback/internal/llm"
	"github.com/voinici/quiz-feedback/internal/store"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	store    store.Store
	provider llm.Provider
}

// NewServer wires the HTTP boundary. The provider may be nil, in which case
// every request takes the deterministic feedback path.
func NewServer(cfg *config.Config, st store.Store, provider llm.Provider) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}

	r := gin.New()
	s := &Server{
		router:   r,
		config:   cfg,
		store:    st,
		provider: provider,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
