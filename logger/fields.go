package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across umi.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"

	// Resolution
	FieldKey       = "key"        // wildcard key or tag query text
	FieldTemplate  = "template"   // raw template being resolved
	FieldSeed      = "seed"       // per-image random seed
	FieldSeedToken = "seed_token" // #token in a seeded placeholder
	FieldPass      = "pass"       // fixed-point pass number
	FieldValue     = "value"      // selected candidate
	FieldHits      = "hits"       // runaway counter value
	FieldLineage   = "lineage"    // keys whose expansion produced a span

	// Vocabulary
	FieldFile    = "file"
	FieldTitle   = "title"
	FieldTags    = "tags"
	FieldEntries = "entries"
	FieldLists   = "lists"

	// Batch
	FieldIndex      = "index"
	FieldBatchSize  = "batch_size"
	FieldBatchCount = "batch_count"

	// Timing and errors
	FieldDurationMS = "duration_ms"
	FieldError      = "error"

	// Network
	FieldAddress  = "address"
	FieldClientID = "client_id"
	FieldPath     = "path"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Store struct {
//	    log *zap.SugaredLogger
//	}
//
//	func NewStore() *Store {
//	    return &Store{log: logger.ComponentLogger("vocab")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrComponent returns l when non-nil, otherwise a named child of the global logger.
// Constructors that accept an optional logger use it as their fallback.
func OrComponent(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return ComponentLogger(name)
}
