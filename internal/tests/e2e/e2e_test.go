package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application/services"
	"github.com/ssonin/nvstech/internal/config"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/infrastructure/embedding"
	"github.com/ssonin/nvstech/internal/infrastructure/persistence/postgres"
	"github.com/ssonin/nvstech/internal/interfaces/rest/handlers"
	"github.com/ssonin/nvstech/internal/interfaces/rest/middleware"
	"github.com/ssonin/nvstech/internal/schema"
	"github.com/ssonin/nvstech/internal/testhelpers"
	"github.com/ssonin/nvstech/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingStub stands in for the remote embedding service. It counts
// requests so tests can verify the exactly-once guarantee end to end.
type embeddingStub struct {
	server *httptest.Server
	calls  atomic.Int64

	mu   sync.Mutex
	fail int
}

func newEmbeddingStub() *embeddingStub {
	stub := &embeddingStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /embeddings", stub.handleEmbeddings)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	stub.server = httptest.NewServer(mux)
	return stub
}

func (s *embeddingStub) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	s.mu.Lock()
	shouldFail := s.fail > 0
	if shouldFail {
		s.fail--
	}
	s.mu.Unlock()

	if shouldFail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req struct {
		Texts []string `json:"texts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail": "malformed body"}`, http.StatusBadRequest)
		return
	}

	embeddings := make([][]float64, len(req.Texts))
	for i := range embeddings {
		embeddings[i] = []float64{0.1, 0.2, 0.3}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
}

// FailNext makes the next n embedding calls return 500.
func (s *embeddingStub) FailNext(n int) {
	s.mu.Lock()
	s.fail = n
	s.mu.Unlock()
}

type stack struct {
	server    *httptest.Server
	stub      *embeddingStub
	reconcile *worker.Reconciler
	ops       *postgres.OperationRepository
}

func setupStack(t *testing.T) *stack {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	db := testhelpers.SetupTestDatabase(t)
	t.Cleanup(func() { db.Cleanup(t) })

	stub := newEmbeddingStub()
	t.Cleanup(stub.server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator, err := schema.NewValidator()
	require.NoError(t, err)

	operationRepo := postgres.NewOperationRepository(db.DB)
	clientRepo := postgres.NewClientRepository(db.DB)
	documentRepo := postgres.NewDocumentRepository(db.DB)
	txCoordinator := postgres.NewTransactionCoordinator(db.DB)

	embeddingClient := embedding.NewClient(config.EmbeddingConfig{
		BaseURL:     stub.server.URL,
		CallTimeout: 5 * time.Second,
	})
	retryClient := embedding.NewRetryClient(embeddingClient, config.RetryConfig{
		BaseDelay:  time.Millisecond,
		MaxRetries: 3,
	})

	clientService := services.NewClientService(validator, clientRepo, logger)
	ingestService := services.NewIngestService(
		validator, operationRepo, clientRepo, documentRepo, retryClient, txCoordinator, logger)
	searchService := services.NewSearchService(clientRepo, documentRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHandlers(clientService, ingestService, searchService, retryClient, logger).Register(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	reconciler := worker.NewReconciler(operationRepo, config.WorkerConfig{
		Interval:   time.Minute,
		BatchSize:  10,
		PendingTTL: time.Minute,
	}, logger)

	return &stack{server: server, stub: stub, reconcile: reconciler, ops: operationRepo}
}

func (s *stack) post(t *testing.T, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp, decode(t, resp)
}

func (s *stack) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestE2E_FullIngestFlow(t *testing.T) {
	s := setupStack(t)

	// 1. Register a client.
	resp, body := s.post(t, "/api/v1/clients",
		`{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clientID := body["id"].(string)

	// 2. Ingest a document.
	key := "e2e-" + uuid.New().String()
	resp, body = s.post(t, "/api/v1/clients/"+clientID+"/documents",
		`{"title": "Analytical Engine", "content": "notes on the analytical engine"}`,
		map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ACCEPTED", body["status"])
	documentID := body["document"].(map[string]any)["id"].(string)
	assert.Equal(t, int64(1), s.stub.calls.Load())

	// 3. Replay with the same key: same document, no new embedding call.
	resp, body = s.post(t, "/api/v1/clients/"+clientID+"/documents",
		`{"title": "Analytical Engine", "content": "notes on the analytical engine"}`,
		map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "REPLAYED", body["status"])
	assert.Equal(t, documentID, body["document"].(map[string]any)["id"])
	assert.Equal(t, int64(1), s.stub.calls.Load())

	// 4. Search finds the document.
	resp, body = s.get(t, "/api/v1/search?q=analytical")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].([]any)
	require.NotEmpty(t, results)

	// 5. Fetch the client back.
	resp, body = s.get(t, "/api/v1/clients/" + clientID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["email"])
}

func TestE2E_RetriesTransientFailures(t *testing.T) {
	s := setupStack(t)

	resp, body := s.post(t, "/api/v1/clients",
		`{"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clientID := body["id"].(string)

	// Two 500s, then success; the retry loop should absorb them.
	s.stub.FailNext(2)

	resp, body = s.post(t, "/api/v1/clients/"+clientID+"/documents",
		`{"title": "Compilers", "content": "notes on compilers"}`,
		map[string]string{"Idempotency-Key": "e2e-" + uuid.New().String()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ACCEPTED", body["status"])
	assert.Equal(t, int64(3), s.stub.calls.Load())
}

func TestE2E_ExhaustedRetriesLeaveFailedRecord(t *testing.T) {
	s := setupStack(t)

	resp, body := s.post(t, "/api/v1/clients",
		`{"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clientID := body["id"].(string)

	// More failures than the retry budget (1 initial + 3 retries).
	s.stub.FailNext(10)
	key := "e2e-" + uuid.New().String()

	resp, _ = s.post(t, "/api/v1/clients/"+clientID+"/documents",
		`{"title": "Compilers", "content": "notes on compilers"}`,
		map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int64(4), s.stub.calls.Load())

	op, err := s.ops.FindByKey(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, op.State)
	require.NotNil(t, op.FailureReason)

	// The key stays claimed: a resubmission conflicts rather than re-running.
	resp, errBody := s.post(t, "/api/v1/clients/"+clientID+"/documents",
		`{"title": "Compilers", "content": "notes on compilers"}`,
		map[string]string{"Idempotency-Key": key})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_REQUEST", errBody["error"].(map[string]any)["code"])
}

func TestE2E_ReconcilerSettlesAbandonedOperations(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	resp, body := s.post(t, "/api/v1/clients",
		`{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	clientID, err := uuid.Parse(body["id"].(string))
	require.NoError(t, err)

	// Simulate a crash: a claimed key whose operation never settled.
	abandoned := domain.NewPendingOperation("e2e-abandoned", clientID, []byte(`{}`))
	abandoned.CreatedAt = time.Now().UTC().Add(-5 * time.Minute)
	require.NoError(t, s.ops.CreatePending(ctx, abandoned))

	s.reconcile.RunOnce(ctx)

	op, err := s.ops.FindByKey(ctx, "e2e-abandoned")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, op.State)
	assert.Equal(t, int64(0), s.stub.calls.Load())
}

func TestE2E_ValidationRejectsBeforeAnyCall(t *testing.T) {
	s := setupStack(t)

	resp, body := s.post(t, "/api/v1/clients",
		`{"first_name": "", "last_name": "Hopper", "email": "nope"}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	violations := body["error"].(map[string]any)["violations"].([]any)
	assert.Len(t, violations, 2)
	assert.Equal(t, int64(0), s.stub.calls.Load())
}
