package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-rag-server/rag"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 2 }

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, model, prompt string) (string, rag.TokenUsage, error) {
	return "stub answer", rag.TokenUsage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}, nil
}

type stubExtractor struct {
	docs map[string]string
}

func (s stubExtractor) Extract(path string) (string, error) {
	text, ok := s.docs[path]
	if !ok {
		return "", rag.ErrDocumentNotFound
	}
	return text, nil
}

func newTestServer(t *testing.T, docs map[string]string) *Server {
	t.Helper()
	store, err := rag.NewVectorStore(2)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	cfg := rag.DefaultConfig()
	cfg.EmbeddingDim = 2
	svc, err := rag.NewService(store, stubEmbedder{}, stubCompleter{}, stubExtractor{docs: docs}, cfg)
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return NewServer(svc)
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&data); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return data
}

func TestHealthHandler_OK(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.healthHandler(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Result().StatusCode)
	}
}

func TestProcessHandler_IndexesDocument(t *testing.T) {
	s := newTestServer(t, map[string]string{"doc.pdf": "some extracted document text"})

	w := postJSON(t, s.processHandler, "/process", map[string]string{"filePath": "doc.pdf"})
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Result().StatusCode)
	}

	data := decodeBody(t, w)
	if data["status"] != "processed" {
		t.Fatalf("expected status processed, got %v", data["status"])
	}
	if data["filePath"] != "doc.pdf" {
		t.Fatalf("expected filePath echoed, got %v", data["filePath"])
	}
	if n, ok := data["num_chunks"].(float64); !ok || n < 1 {
		t.Fatalf("expected at least 1 chunk, got %v", data["num_chunks"])
	}
	if n, ok := data["index_size"].(float64); !ok || n < 1 {
		t.Fatalf("expected positive index size, got %v", data["index_size"])
	}
}

func TestProcessHandler_MissingFile(t *testing.T) {
	s := newTestServer(t, nil)

	w := postJSON(t, s.processHandler, "/process", map[string]string{"filePath": "absent.pdf"})
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Result().StatusCode)
	}
	data := decodeBody(t, w)
	if data["status"] != "error" {
		t.Fatalf("expected status error, got %v", data["status"])
	}
	if msg, _ := data["message"].(string); !strings.Contains(strings.ToLower(msg), "not found") {
		t.Fatalf("expected not-found message, got %v", data["message"])
	}
}

func TestProcessHandler_EmptyExtraction(t *testing.T) {
	s := newTestServer(t, map[string]string{"blank.pdf": "   \n "})

	w := postJSON(t, s.processHandler, "/process", map[string]string{"filePath": "blank.pdf"})
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Result().StatusCode)
	}
	if data := decodeBody(t, w); data["status"] != "error" {
		t.Fatalf("expected status error, got %v", data["status"])
	}
}

func TestProcessHandler_WrongMethod(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/process", nil)
	w := httptest.NewRecorder()
	s.processHandler(w, req)

	if w.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Result().StatusCode)
	}
}

func TestAskHandler_EmptyIndex(t *testing.T) {
	s := newTestServer(t, nil)

	w := postJSON(t, s.askHandler, "/ask", map[string]any{"question": "anything?"})
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Result().StatusCode)
	}
	if data := decodeBody(t, w); data["status"] != "error" {
		t.Fatalf("expected status error, got %v", data["status"])
	}
}

func TestAskHandler_AnswersWithContext(t *testing.T) {
	s := newTestServer(t, map[string]string{"doc.pdf": "a short document about vectors"})

	if w := postJSON(t, s.processHandler, "/process", map[string]string{"filePath": "doc.pdf"}); w.Result().StatusCode != http.StatusOK {
		t.Fatalf("ingest setup failed with %d", w.Result().StatusCode)
	}

	w := postJSON(t, s.askHandler, "/ask", map[string]any{"question": "what is this about?", "top_k": 5})
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Result().StatusCode)
	}

	data := decodeBody(t, w)
	if data["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", data["status"])
	}
	if data["answer"] != "stub answer" {
		t.Fatalf("unexpected answer %v", data["answer"])
	}
	if ctx, _ := data["context_used"].(string); ctx == "" {
		t.Fatalf("expected non-empty context_used")
	}
	usage, ok := data["token_usage"].(map[string]any)
	if !ok || usage["total_tokens"].(float64) != 10 {
		t.Fatalf("unexpected token usage %v", data["token_usage"])
	}
	distances, ok := data["distances"].([]any)
	if !ok || len(distances) == 0 {
		t.Fatalf("expected distances, got %v", data["distances"])
	}
}

func TestAskHandler_MissingQuestion(t *testing.T) {
	s := newTestServer(t, nil)

	w := postJSON(t, s.askHandler, "/ask", map[string]any{})
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Result().StatusCode)
	}
}

func TestCORS_PreflightAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	handler := s.routes()

	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Result().StatusCode)
	}
	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
}
