// Package snapshot locates and decodes raw entity snapshots (the bronze
// layer). Each entity owns a directory of parquet files; the reader always
// selects the most recently written one.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"systock/internal/errs"
)

// Reader resolves the newest snapshot file per entity under a bronze root.
type Reader struct {
	dir string
	log zerolog.Logger
}

// NewReader returns a Reader rooted at dir.
func NewReader(dir string, log zerolog.Logger) *Reader {
	return &Reader{dir: dir, log: log}
}

// Dir returns the bronze root the reader scans.
func (r *Reader) Dir() string { return r.dir }

// Latest returns the path of the newest parquet file for entity, selected by
// storage modification time. Selection is a recency heuristic over the files
// the storage layer produced, not a content-versioning guarantee.
//
// A missing or empty entity directory yields *errs.MissingSourceError; the two
// cases differ only in the wrapped diagnostic.
func (r *Reader) Latest(entity string) (string, error) {
	entityDir := filepath.Join(r.dir, entity)

	entries, err := os.ReadDir(entityDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &errs.MissingSourceError{Entity: entity, Dir: entityDir, Err: fmt.Errorf("directory absent")}
		}
		return "", &errs.MissingSourceError{Entity: entity, Dir: entityDir, Err: err}
	}

	var (
		latest   string
		latestMt time.Time
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMt) {
			latest = filepath.Join(entityDir, e.Name())
			latestMt = info.ModTime()
		}
	}

	if latest == "" {
		return "", &errs.MissingSourceError{Entity: entity, Dir: entityDir, Err: fmt.Errorf("no parquet files")}
	}

	r.log.Debug().Str("entity", entity).Str("file", latest).Msg("resolved latest snapshot")
	return latest, nil
}

// Read decodes the newest snapshot for entity into typed records. Decode
// failures surface as *errs.ValidationError; absence as *errs.MissingSourceError.
func Read[T any](r *Reader, entity string) ([]T, error) {
	path, err := r.Latest(entity)
	if err != nil {
		return nil, err
	}

	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, &errs.ValidationError{Entity: entity, Reason: "snapshot does not match expected schema", Err: err}
	}
	return rows, nil
}

// ReadOptional is Read for join-side inputs that may legitimately be absent:
// a missing source returns (nil, false, nil) instead of an error.
func ReadOptional[T any](r *Reader, entity string) ([]T, bool, error) {
	rows, err := Read[T](r, entity)
	if err != nil {
		var missing *errs.MissingSourceError
		if errors.As(err, &missing) {
			r.log.Warn().Str("entity", entity).Msg("optional snapshot absent, degrading")
			return nil, false, nil
		}
		return nil, false, err
	}
	return rows, true, nil
}

// Write stores rows as a new snappy-compressed snapshot file for entity and
// returns its path. Used by the seed tool and by tests; the production bronze
// layer is written by the external extraction stage in the same format.
func Write[T any](dir, entity string, rows []T) (string, error) {
	entityDir := filepath.Join(dir, entity)
	if err := os.MkdirAll(entityDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s.parquet", entity, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	path := filepath.Join(entityDir, name)

	if err := parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return path, nil
}
