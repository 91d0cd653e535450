// Package indexfile persists the vector index as a gob file with a JSON
// metadata record beside it.
package indexfile

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// Store reads and writes <dir>/index.gob and <dir>/embedding_info.json.
type Store struct {
	indexPath    string
	metadataPath string
}

// NewStore creates a store for the given index file. The metadata file is
// written next to it.
func NewStore(indexPath string) *Store {
	return &Store{
		indexPath:    indexPath,
		metadataPath: filepath.Join(filepath.Dir(indexPath), domain.MetadataFileName),
	}
}

// NewStoreInDir creates a store using the default file names inside dir.
func NewStoreInDir(dir string) *Store {
	return NewStore(filepath.Join(dir, domain.IndexFileName))
}

// Path returns the index file path.
func (s *Store) Path() string {
	return s.indexPath
}

// MetadataPath returns the metadata file path.
func (s *Store) MetadataPath() string {
	return s.metadataPath
}

// Save validates and writes the snapshot, replacing any previous one.
func (s *Store) Save(ctx context.Context, snapshot *domain.IndexSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is nil", domain.ErrInvalidInput)
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return writeAtomic(s.indexPath, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := gob.NewEncoder(bw).Encode(snapshot); err != nil {
			return fmt.Errorf("encode index: %w", err)
		}
		return bw.Flush()
	})
}

// Load reads the snapshot and checks its invariants.
func (s *Store) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.indexPath)
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var snapshot domain.IndexSnapshot
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrIndexCorrupt, s.indexPath, err)
	}
	if err := snapshot.Validate(); err != nil {
		if errors.Is(err, domain.ErrIndexCorrupt) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
	}
	return &snapshot, nil
}

// SaveMetadata writes the build record as indented JSON. Non-ASCII text is
// written as is.
func (s *Store) SaveMetadata(ctx context.Context, meta *domain.BuildMetadata) error {
	if meta == nil {
		return fmt.Errorf("%w: metadata is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return writeAtomic(s.metadataPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		return nil
	})
}

// LoadMetadata reads the build record.
func (s *Store) LoadMetadata(ctx context.Context) (*domain.BuildMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.metadataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta domain.BuildMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// writeAtomic writes to a temp file in the target directory, syncs it and
// renames it over path. Readers never observe a partial file.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
