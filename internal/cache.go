package internal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store persists one JSON record per (identity, kind) pair.
//
// Load never fails: a missing, unreadable or corrupted record is reported as
// absent so the caller falls through to regeneration. Corrupted records are
// removed on the way out. Save errors are returned for the caller to log;
// they must not abort a generation path that already holds a valid result.
type Store interface {
	Load(ctx context.Context, id VideoIdentity, kind ArtifactKind, dst any) bool
	Save(ctx context.Context, id VideoIdentity, kind ArtifactKind, payload any) error
	Delete(ctx context.Context, id VideoIdentity, kind ArtifactKind) error
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats summarizes the content of a Store
type CacheStats struct {
	Backend   string               `json:"backend"`
	Location  string               `json:"location"`
	Entries   map[ArtifactKind]int `json:"entries"`
	TotalSize int64                `json:"total_size"`
}

// Total returns the number of entries across all kinds
func (s CacheStats) Total() int {
	n := 0
	for _, c := range s.Entries {
		n += c
	}
	return n
}

// CacheKey derives the record name for an identity and kind: the hex sha256
// of the identity followed by the kind name
func CacheKey(id VideoIdentity, kind ArtifactKind) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:]) + "_" + string(kind)
}

// kindFromKey recovers the artifact kind from a record name produced by CacheKey
func kindFromKey(key string) (ArtifactKind, bool) {
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return "", false
	}
	kind, err := ParseArtifactKind(key[i+1:])
	if err != nil {
		return "", false
	}
	return kind, true
}

// FileStore keeps each record as an indented JSON file under a single directory
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates the cache directory if needed and returns a store rooted there
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := EnsureDirs(dir); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory holding the records
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id VideoIdentity, kind ArtifactKind) string {
	return filepath.Join(s.dir, CacheKey(id, kind)+".json")
}

// Load decodes the record for (id, kind) into dst
func (s *FileStore) Load(_ context.Context, id VideoIdentity, kind ArtifactKind, dst any) bool {
	path := s.path(id, kind)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpLoad, CacheStatusMiss).Inc()
			return false
		}
		s.logger.Warn("cache read failed",
			"identity", id,
			"kind", kind,
			"error", err,
		)
		CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpLoad, CacheStatusError).Inc()
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("cache record corrupted, evicting",
			"identity", id,
			"kind", kind,
			"path", path,
			"error", err,
		)
		CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpLoad, CacheStatusCorrupt).Inc()
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("evicting corrupted cache record failed", "path", path, "error", rmErr)
		}
		return false
	}

	CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpLoad, CacheStatusHit).Inc()
	return true
}

// Save writes payload as the record for (id, kind), replacing any previous one.
// The record is written to a temporary file first so readers never observe a
// partially written record.
func (s *FileStore) Save(_ context.Context, id VideoIdentity, kind ArtifactKind, payload any) error {
	err := s.save(id, kind, payload)
	status := CacheStatusSuccess
	if err != nil {
		status = CacheStatusError
	}
	CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpSave, status).Inc()
	return err
}

func (s *FileStore) save(id VideoIdentity, kind ArtifactKind, payload any) error {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", kind, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s record: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s record: %w", kind, err)
	}
	if err := os.Rename(tmpName, s.path(id, kind)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s record: %w", kind, err)
	}
	return nil
}

// Delete removes the record for (id, kind). Deleting a missing record is not an error.
func (s *FileStore) Delete(_ context.Context, id VideoIdentity, kind ArtifactKind) error {
	err := os.Remove(s.path(id, kind))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpDelete, CacheStatusError).Inc()
		return fmt.Errorf("deleting %s record: %w", kind, err)
	}
	CacheOperationsTotal.WithLabelValues(CacheBackendFile, string(kind), CacheOpDelete, CacheStatusSuccess).Inc()
	return nil
}

// Clear removes every record and returns how many were removed
func (s *FileStore) Clear(_ context.Context) (int, error) {
	entries, err := s.records()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Stats counts records per kind and their total size on disk
func (s *FileStore) Stats(_ context.Context) (CacheStats, error) {
	stats := CacheStats{
		Backend:  CacheBackendFile,
		Location: s.dir,
		Entries:  make(map[ArtifactKind]int),
	}

	entries, err := s.records()
	if err != nil {
		return stats, err
	}

	for _, e := range entries {
		kind, _ := kindFromKey(strings.TrimSuffix(e.Name(), ".json"))
		stats.Entries[kind]++
		if info, err := e.Info(); err == nil {
			stats.TotalSize += info.Size()
		}
	}
	return stats, nil
}

// records lists the record files, skipping temp files and foreign content
func (s *FileStore) records() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var records []fs.DirEntry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, ok := kindFromKey(strings.TrimSuffix(name, ".json")); !ok {
			continue
		}
		records = append(records, e)
	}
	return records, nil
}
