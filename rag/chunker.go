package rag

import "strings"

// NormalizeText collapses every run of whitespace into a single space and
// trims the ends. Idempotent: normalizing already-normalized text is a no-op.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ChunkText splits normalized text into overlapping windows of `size` words,
// advancing by size-overlap words each step. The advance is clamped to at
// least one word so the loop terminates even when overlap >= size. The last
// chunk may be shorter than `size`. Empty input yields no chunks.
func ChunkText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
