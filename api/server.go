// Package api provides the HTTP server for macrovista.
//
// It serves the rendered dashboard page at the root, a JSON API for
// catalogs, series, dashboards, and headlines, an XLSX export, and a
// WebSocket stream of dashboard refresh events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/macrovista/macrovista/internal/catalog"
	"github.com/macrovista/macrovista/internal/config"
	"github.com/macrovista/macrovista/internal/dashboard"
	"github.com/macrovista/macrovista/internal/imf"
	"github.com/macrovista/macrovista/internal/news"
	"github.com/macrovista/macrovista/internal/report"
	"github.com/macrovista/macrovista/pkg/models"
	"github.com/macrovista/macrovista/pkg/utils"
)

// Server is the macrovista HTTP server: dashboard page, JSON API, and
// WebSocket refresh stream.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	source  dashboard.SeriesSource
	builder *dashboard.Builder
	news    *news.Service
	wsHub   *WSHub
}

// NewServer wires a server to the real IMF DataMapper client described
// by cfg.
func NewServer(cfg *config.Config) *Server {
	client := imf.New(imf.Options{
		BaseURL:    cfg.Upstream.BaseURL,
		UserAgent:  cfg.Upstream.UserAgent,
		Timeout:    time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		CacheTTL:   time.Duration(cfg.Upstream.CacheTTLSec) * time.Second,
		FetchDelay: time.Duration(cfg.Upstream.FetchDelayMs) * time.Millisecond,
	})
	return NewServerWithSource(cfg, client)
}

// NewServerWithSource creates a server on a custom series source.
// Tests use it to substitute a fake upstream.
func NewServerWithSource(cfg *config.Config, source dashboard.SeriesSource) *Server {
	srv := &Server{
		cfg:     cfg,
		source:  source,
		builder: dashboard.NewBuilder(source),
		wsHub:   NewWSHub(),
	}

	if cfg.News.Enabled {
		srv.news = newsService(cfg.News)
	}

	srv.router = srv.buildRouter()
	return srv
}

// newsService builds the headline service from configuration. An empty
// feed list means the built-in IMF feeds.
func newsService(cfg config.NewsConfig) *news.Service {
	if len(cfg.Feeds) == 0 {
		return news.NewService()
	}
	feeds := make([]news.Feed, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		feeds[i] = news.Feed{Name: f.Name, RSSURL: f.RSSURL, BaseURL: catalog.SourceURL}
	}
	return news.NewServiceWithFeeds(feeds)
}

// Router exposes the chi router so tests can mount it on httptest.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe runs the HTTP server until the process receives an
// interrupt or termination signal, then drains in-flight requests.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.Printf("macrovista listening on http://%s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter assembles the middleware stack and route table.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	// Dashboard page
	r.Get("/", s.handleDashboardPage)

	// Health check
	r.Get("/healthz", s.handleHealthz)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Catalogs
		r.Get("/countries", s.handleCountries)
		r.Get("/indicators", s.handleIndicators)

		// Configuration (non-secret)
		r.Get("/config", s.handleConfig)

		// Single series
		r.Get("/series", s.handleSeries)

		// Dashboard
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/export", s.handleDashboardExport)

		// Headlines
		r.Get("/news", s.handleNews)
	})

	// WebSocket
	r.Get("/ws", s.handleWebSocket)

	return r
}

// ============================================================
// Response envelope
// ============================================================

// APIResponse wraps every JSON endpoint: success flag plus either the
// payload or an error string.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ============================================================
// HTTP handlers
// ============================================================

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{
		"status":     "ok",
		"time":       time.Now().UTC().Format(time.RFC3339),
		"ws_clients": s.wsHub.ClientCount(),
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	writeOK(w, catalog.Countries)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	writeOK(w, catalog.Indicators)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	country, ok := catalog.CountryByCode(q.Get("country"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown country code %q", q.Get("country")))
		return
	}
	ind, ok := catalog.IndicatorByKey(q.Get("indicator"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown indicator %q", q.Get("indicator")))
		return
	}

	from, to, err := s.yearRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := s.source.Fetch(ctx, country.APICode, ind.APICode, from, to)
	if err != nil {
		if errors.Is(err, imf.ErrYearRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeOK(w, result)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}

	writeOK(w, dash)
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}

	html, err := report.GenerateHTML(&dash, report.DefaultPageConfig())
	if err != nil {
		log.Printf("dashboard render failed: %v", err)
		http.Error(w, "dashboard render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(html)) //nolint:errcheck
}

func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("macrovista-%s.xlsx", dash.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	// Headers are out the door; a mid-stream failure can only be logged.
	if err := report.WriteXLSX(w, &dash); err != nil {
		log.Printf("xlsx export failed: %v", err)
	}
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeOK(w, []models.NewsArticle{})
		return
	}

	limit := s.cfg.News.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	articles, err := s.news.Headlines(ctx, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	writeOK(w, articles)
}

// ============================================================
// Dashboard assembly
// ============================================================

// buildDashboard runs the full build for the request's selection and
// reports the result over the WebSocket hub. On failure it writes the
// HTTP error itself and returns ok=false.
func (s *Server) buildDashboard(w http.ResponseWriter, r *http.Request) (models.Dashboard, bool) {
	sel := s.selectionFromQuery(r.URL.Query())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	dash, err := s.builder.Build(ctx, sel)
	if err != nil {
		if errors.Is(err, dashboard.ErrYearOrder) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			log.Printf("dashboard build failed: %v", err)
			writeError(w, http.StatusInternalServerError, "dashboard build failed")
		}
		return models.Dashboard{}, false
	}

	s.attachHeadlines(ctx, &dash)
	s.notifyRefresh(dash)
	return dash, true
}

// selectionFromQuery builds the dashboard selection from request query
// parameters. The countries parameter accepts both repeated values and
// comma-separated lists; absent or unparseable values fall back to the
// configured defaults.
func (s *Server) selectionFromQuery(q url.Values) models.Selection {
	sel := models.Selection{
		Countries: s.cfg.Dashboard.DefaultCountries,
		StartYear: s.cfg.Dashboard.DefaultStartYear,
		EndYear:   s.cfg.Dashboard.DefaultEndYear,
	}

	if raw, ok := q["countries"]; ok {
		var codes []string
		for _, v := range raw {
			for _, code := range strings.Split(v, ",") {
				if code = strings.TrimSpace(code); code != "" {
					codes = append(codes, code)
				}
			}
		}
		if len(codes) > 0 {
			sel.Countries = codes
		}
	}

	if v := q.Get("from"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			sel.StartYear = y
		}
	}
	if v := q.Get("to"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			sel.EndYear = y
		}
	}

	return sel
}

// yearRange reads from/to for the single-series endpoint, defaulting to
// the configured selection range and clamping to the selectable bounds.
func (s *Server) yearRange(q url.Values) (from, to int, err error) {
	from = s.cfg.Dashboard.DefaultStartYear
	to = s.cfg.Dashboard.DefaultEndYear

	if v := q.Get("from"); v != "" {
		from, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("from must be a year: %q", v)
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("to must be a year: %q", v)
		}
	}

	maxYear := utils.CurrentYear()
	return utils.ClampYear(from, catalog.MinYear, maxYear),
		utils.ClampYear(to, catalog.MinYear, maxYear), nil
}

// attachHeadlines adds the news strip to a built dashboard. Headline
// failures never block a render.
func (s *Server) attachHeadlines(ctx context.Context, dash *models.Dashboard) {
	if s.news == nil {
		return
	}

	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	headlines, err := s.news.Headlines(hctx, s.cfg.News.Limit)
	if err != nil {
		log.Printf("headlines unavailable: %v", err)
		return
	}
	dash.Headlines = headlines
}

// notifyRefresh tells WebSocket subscribers a dashboard was rebuilt and
// relays any dashboard-level notices.
func (s *Server) notifyRefresh(dash models.Dashboard) {
	withData := 0
	for _, p := range dash.Panels {
		if !p.Empty() {
			withData++
		}
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "dashboard_refreshed",
		Data: map[string]any{
			"countries":        dash.Selection.Countries,
			"from":             dash.Selection.StartYear,
			"to":               dash.Selection.EndYear,
			"panels":           len(dash.Panels),
			"panels_with_data": withData,
			"generated_at":     dash.GeneratedAt.Format(time.RFC3339),
		},
	})

	for _, n := range dash.Notices {
		s.wsHub.Broadcast(WSMessage{Type: "notice", Data: n})
	}
}

// ============================================================
// JSON helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// ============================================================
// WebSocket hub
// ============================================================

// WSMessage is one event on the refresh stream.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub tracks connected WebSocket clients and fans dashboard events
// out to them. The client set is only mutated under mu, so ClientCount
// can read it from any goroutine.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
	events  chan WSMessage
	joins   chan *WSClient
	leaves  chan *WSClient
}

// NewWSHub creates an idle hub. Run starts its event loop.
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*WSClient]bool),
		events:  make(chan WSMessage, 256),
		joins:   make(chan *WSClient),
		leaves:  make(chan *WSClient),
	}
}

// Run is the hub event loop. Clients whose send buffer is full when a
// message arrives are dropped after the delivery pass.
func (h *WSHub) Run() {
	for {
		select {
		case c := <-h.joins:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.leaves:
			h.drop(c)
		case msg := <-h.events:
			var stalled []*WSClient
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					stalled = append(stalled, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range stalled {
				h.drop(c)
			}
		}
	}
}

// drop removes a client and closes its send channel exactly once.
func (h *WSHub) drop(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues a message for every connected client. It never
// blocks; when the hub queue is full the message is discarded.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.events <- msg:
	default:
	}
}

// ClientCount reports how many clients are connected.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register hands a client to the hub loop.
func (h *WSHub) Register(client *WSClient) {
	h.joins <- client
}

// Unregister detaches a client; the hub closes its send channel.
func (h *WSHub) Unregister(client *WSClient) {
	h.leaves <- client
}
