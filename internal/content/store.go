// internal/content/store.go

// Package content caches and persists file contents per revision. Repo
// revisions are immutable, so fetched contents are kept forever; local
// and unknown revisions are never persisted.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"revflow/internal/model"
	shared "revflow/shared/types"
	"revflow/shared/utils"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrCorruptContent  = errors.New("content hash mismatch")
)

// Meta is the badger-resident record for one stored file revision. The
// bytes themselves live on disk under the blob root, keyed by hash, so
// identical contents are stored once.
type Meta struct {
	Key        string    `json:"key"`
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`
	StoredAt   time.Time `json:"stored_at"`
}

// Options configures a Store.
type Options struct {
	Root        string // blob root directory
	CacheSize   int    // number of contents held in memory
	CompressMin int    // minimum size in bytes before compressing
}

// Store provides revision-addressed content access: an LRU cache in
// front of a persistent blob store, falling back to the repository for
// contents not seen before.
type Store struct {
	root        string
	db          *badger.DB
	cache       *lru.Cache[string, []byte]
	compression *compressor
	source      shared.Repository
}

// New creates a content store. source may be nil, in which case only
// explicitly stored contents are served.
func New(db *badger.DB, source shared.Repository, opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = 512
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	if opts.CompressMin == 0 {
		opts.CompressMin = 1024
	}
	compression, err := newCompressor(opts.CompressMin)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}

	return &Store{
		root:        opts.Root,
		db:          db,
		cache:       cache,
		compression: compression,
		source:      source,
	}, nil
}

// Close releases compression resources. The badger handle is owned by
// the caller.
func (s *Store) Close() {
	s.compression.close()
}

// FileContents returns the content of the file at the given revision,
// consulting cache, persistent store and finally the repository.
func (s *Store) FileContents(ctx context.Context, file model.RevisionedFile) ([]byte, error) {
	key := file.String()
	if content, ok := s.cache.Get(key); ok {
		return content, nil
	}

	content, err := s.load(key)
	if err == nil {
		s.cache.Add(key, content)
		return content, nil
	}
	if !errors.Is(err, ErrContentNotFound) {
		return nil, err
	}

	if s.source == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrContentNotFound)
	}
	content, err = s.source.FileContents(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from repository: %w", key, err)
	}

	s.cache.Add(key, content)
	if cacheable(file.Revision) {
		if err := s.Put(file, content); err != nil {
			return nil, fmt.Errorf("persisting %s: %w", key, err)
		}
	}
	return content, nil
}

// Put persists the content of a file revision.
func (s *Store) Put(file model.RevisionedFile, content []byte) error {
	if content == nil {
		content = []byte{}
	}
	key := file.String()
	hash := utils.HashContent(content)

	stored, compressed := s.compression.compress(content)
	blobPath := s.blobPath(hash)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}
	if err := os.WriteFile(blobPath, stored, 0644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}

	meta := Meta{
		Key:        key,
		Hash:       hash,
		Size:       int64(len(content)),
		Compressed: compressed,
		StoredAt:   time.Now(),
	}
	if err := s.storeMeta(meta); err != nil {
		return fmt.Errorf("storing metadata: %w", err)
	}

	s.cache.Add(key, content)
	return nil
}

// Has reports whether the file revision is persisted.
func (s *Store) Has(file model.RevisionedFile) (bool, error) {
	_, err := s.getMeta(file.String())
	if errors.Is(err, ErrContentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// load reads a persisted content and verifies its integrity.
func (s *Store) load(key string) ([]byte, error) {
	meta, err := s.getMeta(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.blobPath(meta.Hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrContentNotFound)
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}

	if meta.Compressed {
		content, err = s.compression.decompress(content)
		if err != nil {
			return nil, err
		}
	}
	if utils.HashContent(content) != meta.Hash {
		return nil, fmt.Errorf("%s: %w", key, ErrCorruptContent)
	}
	return content, nil
}

// cacheable reports whether a revision's content may be persisted.
// Working-copy and unknown revisions are mutable or undefined.
func cacheable(rev model.Revision) bool {
	return !rev.IsLocal() && !rev.IsUnknown()
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.root, hash[:2], hash[2:])
}

func (s *Store) storeMeta(meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(meta.Key), data)
	})
}

func (s *Store) getMeta(key string) (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(key))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%s: %w", key, ErrContentNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	return meta, err
}

func metaKey(key string) []byte {
	return []byte("content:" + key)
}
