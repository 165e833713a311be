// Package server exposes the label pipeline over HTTP for kiosk-style
// frontends. Jobs for the same printer are serialized; different printers
// print concurrently.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/labelpress/labelpress/internal/app"
	"github.com/labelpress/labelpress/internal/cliconfig"
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/pkg/log"
)

// dateLayout is the wire format for the date field.
const dateLayout = "2006-01-02"

// printFn dispatches a rendered request to a printer. Swappable in tests.
type printFn func(ctx context.Context, cfg cliconfig.Config, printer string, req domain.ContentRequest, logger log.Logger) error

// renderFn produces the preview bitmap. Swappable in tests.
type renderFn func(cfg cliconfig.Config, printer string, req domain.ContentRequest) (*image.Gray, error)

// Server routes print requests to the pipeline and keeps the live config
// snapshot that the watcher swaps on file changes.
type Server struct {
	mu  sync.RWMutex
	cfg cliconfig.Config

	logger log.Logger
	print  printFn
	render renderFn

	// printerLocks serializes jobs per printer name.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a server around the given configuration snapshot.
func New(cfg cliconfig.Config, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		print:  app.Print,
		render: renderPreview,
		locks:  make(map[string]*sync.Mutex),
	}
}

func renderPreview(cfg cliconfig.Config, printer string, req domain.ContentRequest) (*image.Gray, error) {
	spec, err := cfg.LabelSpecFor(printer)
	if err != nil {
		return nil, err
	}
	p, err := app.NewPipeline(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return p.Render(spec, req, cfg.DateFormat)
}

// Config returns the current configuration snapshot.
func (s *Server) Config() cliconfig.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig swaps the configuration snapshot. In-flight jobs keep the
// snapshot they started with.
func (s *Server) SetConfig(cfg cliconfig.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.logger.Info("configuration reloaded")
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/print", s.handlePrint)
		r.Get("/options", s.handleOptions)
	})
	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("listening", log.Str("addr", addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// printRequest is the JSON body of POST /api/v1/print.
type printRequest struct {
	Message       string `json:"message"`
	BorderMessage string `json:"border_message"`
	SideMessage   string `json:"side_message"`
	Date          string `json:"date"`
	ShowDate      bool   `json:"show_date"`
	ImagePath     string `json:"image_path"`
	Copies        int    `json:"copies"`
	Printer       string `json:"printer"`
	PreviewOnly   bool   `json:"preview_only"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	var body printRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	req := domain.ContentRequest{
		Message:       body.Message,
		BorderMessage: body.BorderMessage,
		SideMessage:   body.SideMessage,
		ShowDate:      body.ShowDate,
		ImagePath:     body.ImagePath,
		Copies:        body.Copies,
	}
	if req.Copies == 0 {
		req.Copies = 1
	}
	if body.Date != "" {
		d, err := time.Parse(dateLayout, body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		req.Date = d
	} else if body.ShowDate {
		req.Date = time.Now()
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cfg := s.Config()
	printer, _, err := cfg.ResolvePrinter(body.Printer)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if body.PreviewOnly {
		bitmap, err := s.render(cfg, printer, req)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, bitmap); err != nil {
			s.logger.Error("preview encode failed", log.Err(err))
		}
		return
	}

	unlock := s.lockPrinter(printer)
	defer unlock()

	if err := s.print(r.Context(), cfg, printer, req, s.logger); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "printed", "printer": printer})
}

// optionsResponse describes the configured printers for frontends.
type optionsResponse struct {
	DefaultPrinter string          `json:"default_printer"`
	DateFormat     string          `json:"date_format"`
	MinCopies      int             `json:"min_copies"`
	MaxCopies      int             `json:"max_copies"`
	Printers       []printerOption `json:"printers"`
}

type printerOption struct {
	Name      string  `json:"name"`
	Transport string  `json:"transport"`
	WidthIn   float64 `json:"width_in"`
	HeightIn  float64 `json:"height_in"`
	DPI       int     `json:"dpi"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config()

	resp := optionsResponse{
		DefaultPrinter: cfg.DefaultPrinter,
		DateFormat:     cfg.DateFormat,
		MinCopies:      domain.MinCopies,
		MaxCopies:      domain.MaxCopies,
	}
	for name, pc := range cfg.Printers {
		resp.Printers = append(resp.Printers, printerOption{
			Name:      name,
			Transport: pc.Transport,
			WidthIn:   pc.LabelWidthIn,
			HeightIn:  pc.LabelHeightIn,
			DPI:       pc.DPI,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// lockPrinter takes the per-printer job lock, creating it on first use.
func (s *Server) lockPrinter(name string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfig):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
