package api

import (
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/pipeline"
	"github.com/matzehuels/stackwright/pkg/settings"
)

// instance is one live assembly.
type instance struct {
	mu      sync.Mutex
	id      string
	part    string
	created time.Time
	a       *assembly.Assembly
}

// Server serves the assembly API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	cfg    settings.Server

	mu        sync.RWMutex
	instances map[string]*instance

	newID func() string
}

// NewServer creates a server over runner. A nil logger discards output.
func NewServer(runner *pipeline.Runner, cfg settings.Server, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		runner:    runner,
		logger:    logger,
		cfg:       cfg,
		instances: make(map[string]*instance),
		newID:     uuid.NewString,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reload", s.handleReload)

		r.Get("/parts", s.handleListParts)
		r.Get("/parts/{part}", s.handleGetPart)

		r.Post("/instances", s.handleCreateInstance)
		r.Get("/instances", s.handleListInstances)
		r.Route("/instances/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetInstance)
			r.Delete("/", s.handleDeleteInstance)
			r.Get("/fields", s.handleGetFields)
			r.Patch("/fields", s.handlePatchFields)
			r.Put("/fields/{field}", s.handleSetField)
			r.Get("/state", s.handleGetState)
			r.Post("/save", s.handleSave)
			r.Get("/mesh.stl", s.handleMesh)
			r.Get("/graph", s.handleGraph)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", s.cfg.Addr)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Instance registry
// =============================================================================

func (s *Server) add(a *assembly.Assembly, id string) *instance {
	inst := &instance{id: id, part: a.Config().Name, created: time.Now().UTC(), a: a}
	s.mu.Lock()
	s.instances[id] = inst
	s.mu.Unlock()
	return inst
}

func (s *Server) get(id string) (*instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no instance %q", id)
	}
	return inst, nil
}

func (s *Server) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		return false
	}
	delete(s.instances, id)
	return true
}

func (s *Server) list() []*instance {
	s.mu.RLock()
	out := make([]*instance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].created.Equal(out[j].created) {
			return out[i].id < out[j].id
		}
		return out[i].created.Before(out[j].created)
	})
	return out
}
