package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokenlens/internal/domain"
	"tokenlens/internal/pipeline"
	"tokenlens/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type stubPipeline struct {
	result   domain.RunResult
	err      error
	runCalls int
}

func (s *stubPipeline) Run(ctx context.Context) (domain.RunResult, error) {
	s.runCalls++
	return s.result, s.err
}

func newTestRouter(p service.PipelineRunner, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	svc := service.NewTokenService(tracer, p, nil, time.Minute)
	h := New(tracer, svc)

	r := gin.New()
	h.RegisterRoutes(r, apiKey)
	return r
}

func TestGetTokens(t *testing.T) {
	p := &stubPipeline{result: domain.RunResult{
		Records: []domain.AggregatedTokenRecord{
			{Name: "Chainlink", Symbol: "LINK", Chain: domain.ChainEthereum},
			{Name: "Uniswap", Symbol: "UNI", Chain: domain.ChainEthereum},
		},
		Errors: []string{"dexscreener:ethereum/UNI: timeout"},
	}}
	r := newTestRouter(p, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/tokens", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result domain.RunResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(result.Records) != 2 || result.Records[0].Symbol != "LINK" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected degraded-source errors in the response, got %v", result.Errors)
	}
}

func TestGetTokensMissingMarketKey(t *testing.T) {
	p := &stubPipeline{err: pipeline.ErrMissingMarketDataKey}
	r := newTestRouter(p, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/tokens", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if body := w.Body.String(); !json.Valid([]byte(body)) {
		t.Fatalf("expected JSON error body, got %s", body)
	}
}

func TestGetTokensRefreshQuery(t *testing.T) {
	p := &stubPipeline{result: domain.RunResult{Records: []domain.AggregatedTokenRecord{}}}
	r := newTestRouter(p, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/tokens?refresh=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if p.runCalls != 1 {
		t.Fatalf("expected one pipeline run, got %d", p.runCalls)
	}
}

func TestGetTokensAPIKeyAuth(t *testing.T) {
	p := &stubPipeline{result: domain.RunResult{Records: []domain.AggregatedTokenRecord{}}}
	r := newTestRouter(p, "secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/tokens", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/tokens", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 with wrong key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/tokens", nil)
	req.Header.Set("X-API-Key", "secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 with valid key, got %d", w.Code)
	}

	// Health stays open regardless of the auth key.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", w.Code)
	}
}
