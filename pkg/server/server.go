package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/adapter"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/api"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/memstore"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/mongostore"
)

// Server wires the configured backend, the collection manager and the
// HTTP router together.
type Server struct {
	cfg     Config
	router  *mux.Router
	manager *adapter.Manager

	// engine is set only for the memory backend; it owns snapshots and
	// the background save worker.
	engine *memstore.Engine
}

// New creates a server for the given configuration.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		connector domain.Connector
		engine    *memstore.Engine
	)
	switch cfg.Backend {
	case BackendMongo:
		connector = mongostore.NewConnector(cfg.Mongo)
		log.Printf("INFO: Using mongo backend at %s", cfg.Mongo.URI())
	default:
		var opts []memstore.Option
		if cfg.DataFile != "" {
			opts = append(opts, memstore.WithDataFile(cfg.DataFile))
		}
		if cfg.AutoSave > 0 {
			opts = append(opts, memstore.WithAutoSave(time.Duration(cfg.AutoSave)))
		}
		engine = memstore.NewEngine(opts...)
		connector = engine
	}

	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		manager: adapter.NewManager(connector),
		engine:  engine,
	}

	// Define HTTP routes
	api.NewHandler(s.manager).RegisterRoutes(s.router)

	// Use the logging middleware for all routes
	s.router.Use(requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	return s, nil
}

// requestLoggerMiddleware logs the method, URL path, and duration for each request.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s took %s", r.Method, r.URL.Path, elapsed)
	})
}

// Init loads the snapshot file for the memory backend and starts its
// background workers. The mongo backend needs no initialization.
func (s *Server) Init() {
	if s.engine == nil {
		return
	}
	if s.cfg.DataFile != "" {
		if err := s.engine.LoadFromFile(s.cfg.DataFile); err != nil {
			log.Printf("ERROR: Could not load snapshot from file %s: %v", s.cfg.DataFile, err)
		}
	}
	s.engine.StartBackgroundWorkers()
}

// Close stops background workers and writes a final snapshot for the
// memory backend.
func (s *Server) Close() {
	if s.engine == nil {
		return
	}
	s.engine.StopBackgroundWorkers()
	if s.cfg.DataFile == "" {
		return
	}
	if err := s.engine.SaveToFile(s.cfg.DataFile); err != nil {
		log.Printf("ERROR: Could not save snapshot to file %s: %v", s.cfg.DataFile, err)
	} else {
		log.Printf("INFO: Saved snapshot to file %s successfully", s.cfg.DataFile)
	}
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}

// Manager exposes the collection manager, mainly for tests.
func (s *Server) Manager() *adapter.Manager {
	return s.manager
}
