// Package history records generated prompts in SQLite so a past image's
// prompt, seed and overrides can be looked up again.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/settings"
)

// DefaultLimit bounds List when no limit is given.
const DefaultLimit = 20

// Record is one stored image prompt.
type Record struct {
	ID        string             `json:"id"`
	BatchID   string             `json:"batch_id"`
	Index     int                `json:"index"`
	Seed      int64              `json:"seed"`
	Template  string             `json:"template"`
	Prompt    string             `json:"prompt"`
	Negative  string             `json:"negative"`
	Overrides settings.Overrides `json:"overrides"`
	Entries   []string           `json:"entries"`
	Files     []string           `json:"files"`
	CreatedAt time.Time          `json:"created_at"`
}

// Store reads and writes the generations table.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// NewStore wraps a migrated database. A nil log uses the global logger.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: logger.OrComponent(log, "history"), now: time.Now}
}

const insertSQL = `INSERT INTO generations
	(id, batch_id, image_index, seed, template, prompt, negative, overrides, entries, files, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectSQL = `SELECT id, batch_id, image_index, seed, template, prompt, negative, overrides, entries, files, created_at
	FROM generations`

// SaveBatch stores every image of b in one transaction and returns the
// batch ID.
func (s *Store) SaveBatch(ctx context.Context, b *prompt.Batch) (string, error) {
	batchID := uuid.NewString()
	created := s.now().UTC()

	files, err := json.Marshal(nonNil(b.Files))
	if err != nil {
		return "", errors.Wrap(err, "encode files")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin history tx")
	}
	defer tx.Rollback()

	for _, img := range b.Images {
		overrides, err := json.Marshal(img.Overrides)
		if err != nil {
			return "", errors.Wrapf(err, "encode overrides of image %d", img.Index)
		}
		entries, err := json.Marshal(nonNil(img.Entries))
		if err != nil {
			return "", errors.Wrapf(err, "encode entries of image %d", img.Index)
		}
		if _, err := tx.ExecContext(ctx, insertSQL,
			uuid.NewString(), batchID, img.Index, img.Seed, b.Template,
			img.Prompt, img.Negative, string(overrides), string(entries), string(files), created,
		); err != nil {
			return "", errors.Wrapf(err, "insert image %d", img.Index)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit history tx")
	}
	s.log.Debugw("Recorded batch", "batch_id", batchID, logger.FieldBatchSize, len(b.Images))
	return batchID, nil
}

// List returns the newest records first. limit <= 0 uses DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectSQL+` ORDER BY created_at DESC, batch_id, image_index LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}
	return out, nil
}

// Get returns the record whose ID is id or uniquely starts with it.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errors.NewInvalidRequestError("empty record id")
	}
	rows, err := s.db.QueryContext(ctx, selectSQL+` WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`, id, id+"%")
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var found []Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		if r.ID == id {
			return &r, nil
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}

	switch len(found) {
	case 0:
		return nil, errors.NewNotFoundError("history record %q", id)
	case 1:
		return &found[0], nil
	default:
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("record id %q is ambiguous", id),
			"use more characters of the id")
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Record, error) {
	var r Record
	var overrides, entries, files string
	if err := row.Scan(&r.ID, &r.BatchID, &r.Index, &r.Seed, &r.Template, &r.Prompt,
		&r.Negative, &overrides, &entries, &files, &r.CreatedAt); err != nil {
		return r, errors.Wrap(err, "scan history row")
	}
	if err := json.Unmarshal([]byte(overrides), &r.Overrides); err != nil {
		return r, errors.Wrapf(err, "decode overrides of %s", r.ID)
	}
	if err := json.Unmarshal([]byte(entries), &r.Entries); err != nil {
		return r, errors.Wrapf(err, "decode entries of %s", r.ID)
	}
	if err := json.Unmarshal([]byte(files), &r.Files); err != nil {
		return r, errors.Wrapf(err, "decode files of %s", r.ID)
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
