package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/refresh"
	"github.com/sells-group/estate-cli/internal/render"
	"github.com/sells-group/estate-cli/internal/scrape"
)

// refreshTrigger starts a background refresh. *refresh.Scheduler satisfies it.
type refreshTrigger interface {
	Trigger(cities []string) bool
}

// scrapeRunner runs the scrapers synchronously. *scrape.Runner satisfies it.
type scrapeRunner interface {
	Run(ctx context.Context, cities []string) ([]scrape.SourceResult, error)
}

// server holds the HTTP handlers' dependencies.
type server struct {
	answers    answerer
	refresher  refreshTrigger
	scraper    scrapeRunner
	dataDir    string
	freshHours int
	cities     []string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type queryRequest struct {
	Query string `json:"query" validate:"required"`
}

type citiesRequest struct {
	Cities *[]string `json:"cities"`
}

type cliPredictResponse struct {
	FormattedOutput string       `json:"formatted_output"`
	RawResult       model.Result `json:"raw_result"`
}

// routes builds the chi router.
func (s *server) routes(corsOrigins []string, timeout time.Duration) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/query", s.handleQuery)
	r.Post("/predict", s.handleQuery)
	r.Post("/cli_predict", s.handleCLIPredict)
	r.Get("/data_status", s.handleDataStatus)
	r.Post("/refresh_data", s.handleRefresh)
	r.Post("/start_scraping", s.handleStartScraping)

	return r
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.answers.Answer(r.Context(), q))
}

func (s *server) handleCLIPredict(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r)
	if !ok {
		return
	}
	res := s.answers.Answer(r.Context(), q)
	writeJSON(w, http.StatusOK, cliPredictResponse{
		FormattedOutput: render.FormatCLI(res),
		RawResult:       res,
	})
}

func (s *server) handleDataStatus(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "No city specified")
		return
	}
	writeJSON(w, http.StatusOK, refresh.Status(s.dataDir, city, s.freshHours))
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cities, ok := s.decodeCities(w, r)
	if !ok {
		return
	}
	s.refresher.Trigger(cities)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Data refresh initiated for: " + strings.Join(cities, ", "),
		"status":  "processing",
	})
}

func (s *server) handleStartScraping(w http.ResponseWriter, r *http.Request) {
	cities, ok := s.decodeCities(w, r)
	if !ok {
		return
	}
	results, err := s.scraper.Run(r.Context(), cities)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Scraping completed",
		"results": results,
	})
}

// decodeQuery reads {query} and writes a 400 when it is missing.
func decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "No query provided")
		return "", false
	}
	return req.Query, true
}

// decodeCities reads an optional {cities}. An absent list means the
// configured cities; an explicitly empty one is rejected.
func (s *server) decodeCities(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req citiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	cities := s.cities
	if req.Cities != nil {
		cities = titleCities(*req.Cities)
	}
	if len(cities) == 0 {
		writeError(w, http.StatusBadRequest, "No cities specified")
		return nil, false
	}
	return cities, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs each request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
