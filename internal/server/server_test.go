package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedrelay/internal/domain"
	"feedrelay/internal/service"
)

type stubPreviewer struct {
	result *service.PreviewResult
	err    error
	gotID  string
}

func (p *stubPreviewer) Preview(_ context.Context, event domain.FeedEvent) (*service.PreviewResult, error) {
	p.gotID = event.Feed.ID
	return p.result, p.err
}

type stubCounter struct {
	counts map[domain.DeliveryStatus]int
	err    error
	gotID  string
}

func (c *stubCounter) CountByStatusSince(_ context.Context, feedID string, status domain.DeliveryStatus, _ time.Time) (int, error) {
	c.gotID = feedID
	return c.counts[status], c.err
}

func testHandler(previewer Previewer) http.Handler {
	return testHandlerWithCounter(previewer, &stubCounter{})
}

func testHandlerWithCounter(previewer Previewer, counter DeliveryCounter) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	return New(":0", "secret", previewer, counter, logger).httpServer.Handler
}

func previewRequest(apiKey, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/delivery-preview", strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("api-key", apiKey)
	}
	return req
}

func TestServer_RejectsMissingAPIKey(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("", `{"feed":{"id":"feed-1"}}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_RejectsWrongAPIKey(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("wrong", `{"feed":{"id":"feed-1"}}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_HealthNeedsNoKey(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_PreviewHappyPath(t *testing.T) {
	previewer := &stubPreviewer{
		result: &service.PreviewResult{
			FeedID: "feed-1",
			Articles: []service.ArticlePreview{
				{
					ID:     "a1",
					IDHash: "hash-1",
					New:    true,
					Mediums: []service.MediumPreview{
						{
							MediumID:        "medium-1",
							FilterPassed:    true,
							RateLimitPassed: true,
							Status:          domain.StatusPendingDelivery,
						},
					},
				},
			},
		},
	}
	handler := testHandler(previewer)

	body := `{
		"feed": {"id": "feed-1", "url": "https://example.com/rss"},
		"articles": [{"guid": "g1", "title": "Hello"}],
		"mediums": [{"id": "medium-1"}]
	}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("secret", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "feed-1", previewer.gotID)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result service.PreviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "feed-1", result.FeedID)
	require.Len(t, result.Articles, 1)
	assert.True(t, result.Articles[0].New)
	require.Len(t, result.Articles[0].Mediums, 1)
	assert.Equal(t, domain.StatusPendingDelivery, result.Articles[0].Mediums[0].Status)
}

func TestServer_DiagnoseArticlesRouteSharesHandler(t *testing.T) {
	previewer := &stubPreviewer{result: &service.PreviewResult{FeedID: "feed-1"}}
	handler := testHandler(previewer)

	req := httptest.NewRequest(http.MethodPost, "/v1/diagnose-articles",
		strings.NewReader(`{"feed":{"id":"feed-1"}}`))
	req.Header.Set("api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "feed-1", previewer.gotID)
}

func TestServer_RejectsMalformedBody(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("secret", `{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RejectsMissingFeedID(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("secret", `{"feed":{"url":"https://example.com"}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DeliveryStats(t *testing.T) {
	counter := &stubCounter{counts: map[domain.DeliveryStatus]int{
		domain.StatusSent:        12,
		domain.StatusFilteredOut: 3,
	}}
	handler := testHandlerWithCounter(&stubPreviewer{}, counter)

	req := httptest.NewRequest(http.MethodGet, "/v1/feeds/feed-1/delivery-stats", nil)
	req.Header.Set("api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "feed-1", counter.gotID)

	var body struct {
		FeedID string                        `json:"feedId"`
		Counts map[domain.DeliveryStatus]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "feed-1", body.FeedID)
	assert.Equal(t, 12, body.Counts[domain.StatusSent])
	assert.Equal(t, 3, body.Counts[domain.StatusFilteredOut])
	assert.Equal(t, 0, body.Counts[domain.StatusFailed])
}

func TestServer_DeliveryStatsNeedsKey(t *testing.T) {
	handler := testHandler(&stubPreviewer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feeds/feed-1/delivery-stats", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_DeliveryStatsStoreError(t *testing.T) {
	counter := &stubCounter{err: errors.New("db down")}
	handler := testHandlerWithCounter(&stubPreviewer{}, counter)

	req := httptest.NewRequest(http.MethodGet, "/v1/feeds/feed-1/delivery-stats", nil)
	req.Header.Set("api-key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_PreviewFailure(t *testing.T) {
	handler := testHandler(&stubPreviewer{err: errors.New("store down")})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, previewRequest("secret", `{"feed":{"id":"feed-1"}}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
