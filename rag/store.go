package rag

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrEmptyStore is returned by Search when nothing has been indexed yet.
	ErrEmptyStore = errors.New("vector store is empty")
)

// VectorStore is an append-only, in-memory exact nearest-neighbor index.
// Vectors and their source chunks are held in two parallel slices sharing
// positional indices; a single lock guards both so a reader never observes
// a half-applied append.
type VectorStore struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []string
}

// NewVectorStore creates a store for vectors of the given fixed dimension.
func NewVectorStore(dim int) (*VectorStore, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dim)
	}
	return &VectorStore{dim: dim}, nil
}

// Dimension returns the fixed vector dimension set at construction.
func (s *VectorStore) Dimension() int { return s.dim }

// Append adds a batch of vectors and their chunk texts, preserving index
// correspondence. All validation happens before any mutation, so a failed
// append leaves the store untouched. Returns the new total count.
func (s *VectorStore) Append(vectors [][]float32, chunks []string) (int, error) {
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("vectors/chunks length mismatch: %d != %d", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if len(v) != s.dim {
			return 0, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = append(s.vectors, vectors...)
	s.chunks = append(s.chunks, chunks...)
	return len(s.vectors), nil
}

// Search performs an exact linear scan and returns the min(k, size) stored
// entries closest to the query by squared Euclidean distance, ascending.
// The sort is stable on distance only, so equal distances keep insertion
// order. Returns ErrEmptyStore when nothing has been indexed, and an error
// for k <= 0 or a query of the wrong dimension.
func (s *VectorStore) Search(query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid top-k %d", k)
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has dimension %d, want %d", len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return nil, ErrEmptyStore
	}

	results := make([]SearchResult, len(s.vectors))
	for i, v := range s.vectors {
		results[i] = SearchResult{
			Text:     s.chunks[i],
			Index:    i,
			Distance: squaredL2(query, v),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the current number of stored vectors.
func (s *VectorStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Clear drops all stored vectors and chunks.
func (s *VectorStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
