package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verisci/internal/evaluator"
	"github.com/ppiankov/verisci/internal/ledger"
	"github.com/ppiankov/verisci/internal/model"
	"github.com/ppiankov/verisci/internal/pipeline"
	"github.com/ppiankov/verisci/internal/store"
)

const applesID = "dc937665de797b4612608b6c14d5394eb2191f00ca483a0332aee64fb2a6d9b4"

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

// slowService counts evaluations and blocks until released
type slowService struct {
	calls   int32
	release chan struct{}
	inner   Service
}

func (s *slowService) Evaluate(ctx context.Context, text string) (*model.EvaluationResult, error) {
	atomic.AddInt32(&s.calls, 1)
	<-s.release
	return s.inner.Evaluate(ctx, text)
}

func (s *slowService) Lookup(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error) {
	return s.inner.Lookup(ctx, id)
}

func (s *slowService) LedgerEntry(ctx context.Context, id model.ClaimID) (*ledger.Entry, error) {
	return s.inner.LedgerEntry(ctx, id)
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(evaluator.New(nil), store.NewMemoryStore(), ledger.NewLogPort(nil), nil)
}

func setupTestRouter(svc Service) http.Handler {
	return NewServer(NewHandlers(svc, 5*time.Second, "test", nil), nil).Handler()
}

func postClaim(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/v1/claims", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleEvaluate(t *testing.T) {
	router := setupTestRouter(newPipeline())

	w := postClaim(t, router, `{"claim": "All apples are green."}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, model.ClaimID(applesID), resp.ClaimID)
	assert.Equal(t, 92, resp.Result.Score)
	assert.Equal(t, model.ConfidenceLow, resp.Result.Confidence)
	assert.Equal(t, model.TierDeterministicStub, resp.Result.Tier)
}

func TestHandleEvaluate_InvalidRequest(t *testing.T) {
	router := setupTestRouter(newPipeline())

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "empty body", body: "{}", wantCode: "INVALID_REQUEST"},
		{name: "not json", body: "claim", wantCode: "INVALID_REQUEST"},
		{name: "empty claim", body: `{"claim": ""}`, wantCode: "INVALID_REQUEST"},
		{name: "whitespace claim", body: `{"claim": "  \n\t "}`, wantCode: "INVALID_CLAIM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postClaim(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHandleGet(t *testing.T) {
	router := setupTestRouter(newPipeline())

	// Not yet evaluated
	req, _ := http.NewRequest(http.MethodGet, "/v1/claims/"+applesID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	postClaim(t, router, `{"claim": "All apples are green."}`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 92, resp.Result.Score)
	assert.Equal(t, "All apples are green.", resp.Result.Claim)
}

func TestHandleGet_InvalidID(t *testing.T) {
	router := setupTestRouter(newPipeline())

	for _, id := range []string{"abc", strings.ToUpper(applesID), applesID + "00"} {
		req, _ := http.NewRequest(http.MethodGet, "/v1/claims/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestHandleLedger(t *testing.T) {
	port, err := ledger.New(ledger.ModeMemory, nil)
	require.NoError(t, err)
	router := setupTestRouter(pipeline.New(evaluator.New(nil), store.NewMemoryStore(), port, nil))

	req, _ := http.NewRequest(http.MethodGet, "/v1/claims/"+applesID+"/ledger", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	postClaim(t, router, `{"claim": "All apples are green."}`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LedgerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ClaimID(applesID), resp.ClaimID)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, 92, resp.Entry.Score)
	assert.Equal(t, model.ConfidenceLow, resp.Entry.Confidence)
	assert.NotEmpty(t, resp.Entry.Explanation)
}

func TestHandleLedger_LogPort(t *testing.T) {
	router := setupTestRouter(newPipeline())
	postClaim(t, router, `{"claim": "All apples are green."}`)

	// The log-only port keeps nothing
	req, _ := http.NewRequest(http.MethodGet, "/v1/claims/"+applesID+"/ledger", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/v1/claims/abc/ledger", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEvaluate_CollapsesConcurrentRequests(t *testing.T) {
	svc := &slowService{release: make(chan struct{}), inner: newPipeline()}
	router := setupTestRouter(svc)

	const n = 5
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Cosmetic variants share one identifier
			body := `{"claim": "All apples are green."}`
			if i%2 == 1 {
				body = `{"claim": "  All  apples are green.  "}`
			}
			codes[i] = postClaim(t, router, body).Code
		}(i)
	}

	// Let every request reach the in-flight evaluation
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(svc.release)
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.calls))
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(newPipeline())

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(newPipeline())
	postClaim(t, router, `{"claim": "All apples are green."}`)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "verisci_evaluations_total")
}

func TestServer_RunShutsDown(t *testing.T) {
	srv := NewServer(NewHandlers(newPipeline(), time.Second, "test", nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
