package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"go-rag-server/rag"
)

type Server struct {
	svc *rag.Service
}

func NewServer(svc *rag.Service) *Server {
	return &Server{svc: svc}
}

type processRequest struct {
	FilePath string `json:"filePath"`
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Model    string `json:"model"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}

// errorStatus maps pipeline errors to HTTP status codes. Input-class errors
// are the client's fault; anything else is reported as an upstream failure.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, rag.ErrUnreadableDocument),
		errors.Is(err, rag.ErrNoText),
		errors.Is(err, rag.ErrEmptyDocument),
		errors.Is(err, rag.ErrNothingIndexed):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

// POST /process  { "filePath": "doc.pdf" }
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "filePath is required")
		return
	}

	res, err := s.svc.IngestFile(r.Context(), req.FilePath)
	if err != nil {
		log.Printf("process %s: %v", req.FilePath, err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "processed",
		"filePath":   req.FilePath,
		"num_chunks": res.NumChunks,
		"index_size": res.IndexSize,
	})
}

// POST /ask  { "question": "...", "top_k": 5, "model": "gpt-4o-mini" }
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	res, err := s.svc.Ask(r.Context(), req.Question, req.TopK, req.Model)
	if err != nil {
		log.Printf("ask: %v", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"answer":       res.Answer,
		"context_used": res.ContextUsed,
		"token_usage":  res.Usage,
		"distances":    res.Distances,
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/process", s.processHandler)
	mux.HandleFunc("/ask", s.askHandler)
	return withCORS(mux)
}

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "path to config YAML")
	flag.Parse()

	cfg, err := rag.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable not set")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}
	client := openai.NewClientWithConfig(clientCfg)

	store, err := rag.NewVectorStore(cfg.EmbeddingDim)
	if err != nil {
		log.Fatalf("creating store: %v", err)
	}
	embedder, err := rag.NewOpenAIEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		log.Fatalf("creating embedder: %v", err)
	}
	completer, err := rag.NewOpenAICompleter(client, cfg.MaxTokens)
	if err != nil {
		log.Fatalf("creating completer: %v", err)
	}

	svc, err := rag.NewService(store, embedder, completer, rag.PDFExtractor{}, cfg)
	if err != nil {
		log.Fatalf("creating service: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewServer(svc).routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.TimeoutSecs+30) * time.Second,
	}

	log.Printf("server listening on %s", cfg.Addr)
	log.Fatal(srv.ListenAndServe())
}
