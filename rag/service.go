package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	// ErrEmptyDocument means extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrNothingIndexed means a question was asked before any ingestion.
	ErrNothingIndexed = errors.New("no documents indexed")
)

// contextSeparator joins retrieved chunks into the context string. Chunk
// text is single-spaced after normalization, so the separator cannot occur
// inside a chunk.
const contextSeparator = "\n\n----\n\n"

// Service wires the extractor, embedder, vector store and completer into
// the ingestion and answer pipelines.
type Service struct {
	store     *VectorStore
	embedder  Embedder
	completer Completer
	extractor TextExtractor
	cfg       Config
}

// NewService builds a service from its collaborators. The store dimension
// must match the embedder's.
func NewService(store *VectorStore, embedder Embedder, completer Completer, extractor TextExtractor, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store.Dimension() != embedder.Dimension() {
		return nil, fmt.Errorf("store dimension %d does not match embedder dimension %d",
			store.Dimension(), embedder.Dimension())
	}
	return &Service{
		store:     store,
		embedder:  embedder,
		completer: completer,
		extractor: extractor,
		cfg:       cfg,
	}, nil
}

// StoreSize returns the current number of indexed chunks.
func (s *Service) StoreSize() int { return s.store.Size() }

// IngestFile extracts text from the document at path and indexes it.
func (s *Service) IngestFile(ctx context.Context, path string) (IngestResult, error) {
	text, err := s.extractor.Extract(path)
	if err != nil {
		return IngestResult{}, err
	}
	return s.IngestText(ctx, text)
}

// IngestText normalizes, chunks, embeds and appends one document's text.
// The whole chunk batch is embedded in a single provider call and appended
// atomically: on any failure the store is left unchanged.
func (s *Service) IngestText(ctx context.Context, text string) (IngestResult, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return IngestResult{}, ErrEmptyDocument
	}

	chunks := ChunkText(normalized, s.cfg.ChunkSize, s.cfg.ChunkOverlap)

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return IngestResult{}, err
	}

	total, err := s.store.Append(vectors, chunks)
	if err != nil {
		return IngestResult{}, err
	}

	log.Printf("ingested %d chunks, index size now %d", len(chunks), total)
	return IngestResult{NumChunks: len(chunks), IndexSize: total}, nil
}

// Ask answers a question from the indexed chunks. topK and model fall back
// to the configured defaults when zero-valued. The store is checked before
// any provider call is made.
func (s *Service) Ask(ctx context.Context, question string, topK int, model string) (*AnswerResult, error) {
	if s.store.Size() == 0 {
		return nil, ErrNothingIndexed
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	if model == "" {
		model = s.cfg.CompletionModel
	}

	queryVectors, err := s.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(queryVectors[0], topK)
	if err != nil {
		if errors.Is(err, ErrEmptyStore) {
			return nil, ErrNothingIndexed
		}
		return nil, err
	}

	texts := make([]string, len(results))
	distances := make([]float32, len(results))
	for i, r := range results {
		texts[i] = r.Text
		distances[i] = r.Distance
	}
	contextText := strings.Join(texts, contextSeparator)

	prompt := buildPrompt(contextText, question)
	answer, usage, err := s.completer.Complete(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		Answer:      answer,
		ContextUsed: contextText,
		Usage:       usage,
		Distances:   distances,
	}, nil
}

// buildPrompt assembles the grounding prompt. The instruction-context-
// question ordering is fixed; the context and question are embedded
// verbatim.
func buildPrompt(contextText, question string) string {
	return fmt.Sprintf(`
You are a research assistant. Use ONLY the context below to answer accurately.

Context:
"""%s"""

Question:
%s

Answer:
`, contextText, question)
}
