// Package api serves scrapes, jobs, history and bookmarks over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/outreach-cli/internal/cost"
	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Scraper runs one synchronous search.
type Scraper interface {
	Scrape(ctx context.Context, params model.SearchParams) ([]model.Lead, error)
}

// Jobs submits and polls asynchronous searches.
type Jobs interface {
	Submit(ctx context.Context, params model.SearchParams) (string, error)
	Poll(ctx context.Context, id string) (*model.Job, error)
}

// Config holds request limits and CORS settings.
type Config struct {
	MaxResultsLimit int
	CORSOrigins     []string
	RequestTimeout  time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	scraper Scraper
	jobs    Jobs
	store   store.Store
	calc    *cost.Calculator
	cfg     Config
	nowFunc func() time.Time

	mu      sync.RWMutex
	current []model.Lead
}

// New returns a Server. calc may be nil, in which case default rates apply.
func New(scraper Scraper, jobs Jobs, st store.Store, calc *cost.Calculator, cfg Config) *Server {
	if calc == nil {
		calc = cost.NewCalculator(cost.Rates{})
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{
		scraper: scraper,
		jobs:    jobs,
		store:   st,
		calc:    calc,
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/scrape", s.handleScrape)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmitJob)
		r.Get("/{id}", s.handleGetJob)
	})

	r.Get("/history", s.handleHistory)

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", s.handleListLeads)
		r.Post("/", s.handleSaveLead)
		r.Delete("/{id}", s.handleDeleteLead)
	})

	r.Get("/download-csv", s.handleDownload(export.FormatCSV))
	r.Get("/download-xlsx", s.handleDownload(export.FormatXLSX))
	r.Get("/api/cost-analysis", s.handleCostAnalysis)

	return r
}

func (s *Server) setCurrent(leads []model.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = leads
}

func (s *Server) currentResults() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Lead, len(s.current))
	copy(out, s.current)
	return out
}
