// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Artifact names. The manifest is written last and marks a version complete.
const (
	ArtifactIndex    = "index"
	ArtifactMatrix   = "matrix"
	ArtifactTitles   = "titles"
	ArtifactCatalog  = "catalog"
	ArtifactManifest = "manifest"
)

const fileSuffix = ".gob.gz"

var (
	// ErrNoModel is returned when no complete version exists.
	ErrNoModel = errors.New("no model stored")

	// ErrChecksum is returned when an artifact fails integrity verification.
	ErrChecksum = errors.New("checksum mismatch")
)

// ArtifactMetadata describes one stored artifact file.
type ArtifactMetadata struct {
	// Name is the artifact name (e.g., "matrix", "titles").
	Name string `json:"name"`

	// Version is the bundle version the artifact belongs to.
	Version int `json:"version"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// Checksum is the SHA-256 checksum of the uncompressed gob data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// Store manages versioned artifact files in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version seen per artifact name
	versions map[string]int
}

// NewStore creates a store at baseDir, creating the directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.Refresh(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}

	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// Refresh rescans the directory. A reader process calls this to pick up
// versions written by a separate build process.
func (s *Store) Refresh() error {
	found, err := s.scan()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.setVersions(found)
	s.mu.Unlock()
	return nil
}

// setVersions replaces the version table. Callers hold s.mu.
func (s *Store) setVersions(found map[string][]int) {
	versions := make(map[string]int)
	for name, vs := range found {
		for _, v := range vs {
			if v > versions[name] {
				versions[name] = v
			}
		}
	}
	s.versions = versions
}

// scan lists the versions present on disk per artifact name.
func (s *Store) scan() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	found := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		name, version := parseArtifactFilename(strings.TrimSuffix(entry.Name(), fileSuffix))
		if name == "" {
			continue
		}
		found[name] = append(found[name], version)
	}
	return found, nil
}

// parseArtifactFilename splits "matrix_v12" into ("matrix", 12).
func parseArtifactFilename(name string) (artifact string, version int) {
	idx := strings.LastIndex(name, "_v")
	if idx < 1 {
		return "", 0
	}

	if _, err := fmt.Sscanf(name[idx+2:], "%d", &version); err != nil || version < 1 {
		return "", 0
	}

	return name[:idx], version
}

// Save writes data as artifact name at version. The file appears
// atomically: it is written to a temporary name and renamed.
func (s *Store) Save(ctx context.Context, name string, version int, data any) (*ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return nil, fmt.Errorf("compress %s: %w", name, err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta := ArtifactMetadata{
		Name:      name,
		Version:   version,
		SavedAt:   time.Now().UTC(),
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	final := s.artifactPath(name, version)
	tmp := final + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path is built from artifact name and version
	if err != nil {
		return nil, fmt.Errorf("create %s file: %w", name, err)
	}

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		_ = f.Close()      //nolint:errcheck // already failing
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("write %s file: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()      //nolint:errcheck // already failing
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("sync %s file: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("close %s file: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("publish %s file: %w", name, err)
	}

	if version > s.versions[name] {
		s.versions[name] = version
	}

	return &meta, nil
}

// Load decodes artifact name at version into target.
// If version is 0, the latest version is loaded.
func (s *Store) Load(ctx context.Context, name string, version int, target any) (*ArtifactMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: no %s artifact", ErrNoModel, name)
		}
	}

	f, err := os.Open(s.artifactPath(name, version)) //nolint:gosec // path is built from artifact name and version
	if err != nil {
		return nil, fmt.Errorf("open %s file: %w", name, err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read %s file: %w", name, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", name, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed %s: %w", name, err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("%w: %s v%d expected %s, got %s", ErrChecksum, name, version, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &sf.Metadata, nil
}

// LatestVersion returns the newest version of artifact name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// Delete removes every artifact of a version.
func (s *Store) Delete(ctx context.Context, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Manifest first so a half-deleted version is never considered complete.
	names := []string{ArtifactManifest, ArtifactIndex, ArtifactMatrix, ArtifactTitles, ArtifactCatalog}
	var removed bool
	for _, name := range names {
		err := os.Remove(s.artifactPath(name, version))
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("delete %s v%d: %w", name, version, err)
		}
	}
	if !removed {
		return fmt.Errorf("delete v%d: %w", version, os.ErrNotExist)
	}

	found, err := s.scan()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	s.setVersions(found)
	return nil
}

// Prune removes complete versions beyond the newest keepVersions, plus any
// leftover artifacts of incomplete versions older than the newest kept one.
func (s *Store) Prune(ctx context.Context, keepVersions int) error {
	if keepVersions < 1 {
		keepVersions = 1
	}

	found, err := s.scan()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	complete := append([]int(nil), found[ArtifactManifest]...)
	sort.Sort(sort.Reverse(sort.IntSlice(complete)))
	if len(complete) <= keepVersions {
		return nil
	}
	oldestKept := complete[keepVersions-1]

	stale := make(map[int]struct{})
	for _, vs := range found {
		for _, v := range vs {
			if v < oldestKept {
				stale[v] = struct{}{}
			}
		}
	}

	for v := range stale {
		if err := s.Delete(ctx, v); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// artifactPath returns the file path for an artifact version.
func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(ArtifactMetadata{})
	gob.Register(storedFile{})
}
