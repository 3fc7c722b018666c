package rag

// SearchResult is one nearest-neighbor match from the vector store.
type SearchResult struct {
	Text     string  `json:"text"`
	Index    int     `json:"index"`
	Distance float32 `json:"distance"`
}

// TokenUsage mirrors the token counters returned by the completion provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// IngestResult reports the outcome of indexing one document.
type IngestResult struct {
	NumChunks int `json:"num_chunks"`
	IndexSize int `json:"index_size"`
}

// AnswerResult is the full outcome of answering one question, including the
// exact context string fed to the model and the raw retrieval distances so
// callers can judge relevance themselves.
type AnswerResult struct {
	Answer      string     `json:"answer"`
	ContextUsed string     `json:"context_used"`
	Usage       TokenUsage `json:"token_usage"`
	Distances   []float32  `json:"distances"`
}
