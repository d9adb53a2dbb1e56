// Package server exposes the read-only diagnostic API used by
// operator tooling: the same pipeline code paths run in simulation so
// "what will happen" cannot drift from "what happened".
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"feedrelay/internal/domain"
	"feedrelay/internal/service"
)

// Previewer is the simulation entry point of the pipeline.
type Previewer interface {
	Preview(ctx context.Context, event domain.FeedEvent) (*service.PreviewResult, error)
}

// DeliveryCounter reports per-feed delivery outcomes for the stats
// endpoint.
type DeliveryCounter interface {
	CountByStatusSince(ctx context.Context, feedID string, status domain.DeliveryStatus, since time.Time) (int, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// apiKeyMiddleware rejects any request whose api-key header does not
// match the configured shared secret. No further processing happens
// on a mismatch.
func apiKeyMiddleware(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("api-key")
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				logger.Warn("rejected request with bad api key",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func New(addr, apiKey string, previewer Previewer, counter DeliveryCounter, logger *slog.Logger) *Server {
	handler := &diagnosticHandler{previewer: previewer, counter: counter, logger: logger}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/diagnose-articles", handler.diagnoseArticles)
	api.HandleFunc("POST /v1/delivery-preview", handler.deliveryPreview)
	api.HandleFunc("GET /v1/feeds/{feedID}/delivery-stats", handler.deliveryStats)

	// Health stays outside the key guard so probes need no secret.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("/", apiKeyMiddleware(apiKey, logger)(api))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
// within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("diagnostic server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "error", err)
		return s.httpServer.Close()
	}
	s.logger.Info("diagnostic server stopped")
	return nil
}

type diagnosticHandler struct {
	previewer Previewer
	counter   DeliveryCounter
	logger    *slog.Logger
}

// diagnoseArticles and deliveryPreview share one implementation: both
// run the simulated pipeline and return per-article verdicts. They
// are separate routes because operator tooling treats them as
// different views over the same result.
func (h *diagnosticHandler) diagnoseArticles(w http.ResponseWriter, r *http.Request) {
	h.simulate(w, r)
}

func (h *diagnosticHandler) deliveryPreview(w http.ResponseWriter, r *http.Request) {
	h.simulate(w, r)
}

func (h *diagnosticHandler) simulate(w http.ResponseWriter, r *http.Request) {
	var event domain.FeedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid feed event payload", http.StatusBadRequest)
		return
	}
	if event.Feed.ID == "" {
		http.Error(w, "feed.id is required", http.StatusBadRequest)
		return
	}

	result, err := h.previewer.Preview(r.Context(), event)
	if err != nil {
		h.logger.Error("preview failed", "feed_id", event.Feed.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode preview response", "error", err)
	}
}

// deliveryStats reports how the feed's deliveries resolved over the
// past day, one count per terminal status plus still-pending parts.
func (h *diagnosticHandler) deliveryStats(w http.ResponseWriter, r *http.Request) {
	feedID := r.PathValue("feedID")
	since := time.Now().UTC().Add(-24 * time.Hour)

	statuses := []domain.DeliveryStatus{
		domain.StatusPendingDelivery,
		domain.StatusSent,
		domain.StatusFailed,
		domain.StatusRejected,
		domain.StatusFilteredOut,
		domain.StatusRateLimited,
		domain.StatusMediumRateLimitedByUser,
	}

	counts := make(map[domain.DeliveryStatus]int, len(statuses))
	for _, status := range statuses {
		count, err := h.counter.CountByStatusSince(r.Context(), feedID, status, since)
		if err != nil {
			h.logger.Error("failed to count deliveries",
				"feed_id", feedID, "status", status, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		counts[status] = count
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"feedId": feedID,
		"since":  since,
		"counts": counts,
	}); err != nil {
		h.logger.Error("failed to encode delivery stats", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
