package server

import (
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/vocab"
)

// WebSocket message types
const (
	MsgHello              = "hello"
	MsgGenerate           = "generate"
	MsgGenerateResult     = "generate_result"
	MsgVocabularyReloaded = "vocabulary_reloaded"
	MsgError              = "error"
)

// GenerateRequest is the body of POST /api/generate and the payload of a
// "generate" WebSocket message. Unset fields take the server defaults.
type GenerateRequest struct {
	Template                string  `json:"template"`
	Seed                    *int64  `json:"seed,omitempty"`
	Seeds                   []int64 `json:"seeds,omitempty"`
	BatchSize               int     `json:"batch_size,omitempty"`
	BatchCount              int     `json:"batch_count,omitempty"`
	NegativePrompt          string  `json:"negative_prompt,omitempty"`
	SameSeedPerBatch        *bool   `json:"same_seed_per_batch,omitempty"`
	StaticWildcards         *bool   `json:"static_wildcards,omitempty"`
	CollectNegativeKeywords *bool   `json:"collect_negative_keywords,omitempty"`
	// Ratio names an aspect preset ("2:3" or its full name) whose size
	// becomes the base width and height.
	Ratio string `json:"ratio,omitempty"`
	// Save stores the batch in history when history is enabled.
	Save bool `json:"save,omitempty"`
}

// GenerateResponse carries a generated batch.
type GenerateResponse struct {
	Batch   *prompt.Batch `json:"batch"`
	BatchID string        `json:"batch_id,omitempty"`
}

// ClientMessage is anything a WebSocket client sends.
type ClientMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Generate  GenerateRequest `json:"generate"`
}

// HelloMessage is sent once when a client connects.
type HelloMessage struct {
	Type    string      `json:"type"`
	Version string      `json:"version"`
	Stats   vocab.Stats `json:"stats"`
}

// ResultMessage answers a "generate" message.
type ResultMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	GenerateResponse
}

// ReloadMessage is pushed to every client after a vocabulary refresh.
type ReloadMessage struct {
	Type  string      `json:"type"`
	Stats vocab.Stats `json:"stats"`
}

// ErrorMessage reports a failed client request.
type ErrorMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// FilesResponse is the body of GET /api/files.
type FilesResponse struct {
	Files  []string    `json:"files"`
	Stats  vocab.Stats `json:"stats"`
	Misses []string    `json:"misses"`
}

// TagsResponse is the body of GET /api/tags. Without a tag parameter it
// lists every tag; with one it lists matching entry titles.
type TagsResponse struct {
	Query  []string `json:"query,omitempty"`
	Scope  string   `json:"scope,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Titles []string `json:"titles"`
}
