// Package codestore keeps uploaded contract code on disk, keyed by code hash.
// It stands in for an on-chain code registry: the wizard's first step picks a
// code hash from here.
package codestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// ErrCodeNotFound is returned for an unknown code hash.
var ErrCodeNotFound = errors.New("code not found")

// Code is one uploaded contract. Bytecode is empty for ABI-only uploads.
type Code struct {
	Hash       common.Hash        `json:"hash"`
	Name       string             `json:"name"`
	Metadata   *contract.Metadata `json:"metadata"`
	Bytecode   hexutil.Bytes      `json:"bytecode,omitempty"`
	UploadedAt time.Time          `json:"uploaded_at"`
}

// Deployable reports whether the code carries init bytecode.
func (c *Code) Deployable() bool { return len(c.Bytecode) > 0 }

// StorageEntry is one key of the code map. Value is nil when the key holds
// nothing deployable.
type StorageEntry struct {
	Key   common.Hash
	Value *Code
}

// Source enumerates code map entries.
type Source interface {
	Entries(ctx context.Context) ([]StorageEntry, error)
}

// Hash returns the keccak-256 code hash of data.
func Hash(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Store is a directory of <hash>.json files.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New creates a Store rooted at dir. The directory is created on first upload.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Upload reads an artifact or raw ABI file and stores it. Deployable code is
// keyed by the hash of its init bytecode, ABI-only uploads by the hash of the
// ABI JSON.
func (s *Store) Upload(path string) (*Code, error) {
	art, err := contract.LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	meta, err := contract.ParseMetadata(art.Name, art.ABI)
	if err != nil {
		return nil, err
	}

	hashInput := art.Bytecode
	if !art.HasBytecode() {
		hashInput = art.ABI
	}
	code := &Code{
		Hash:       Hash(hashInput),
		Name:       art.Name,
		Metadata:   meta,
		Bytecode:   art.Bytecode,
		UploadedAt: s.now().UTC(),
	}
	if err := s.put(code); err != nil {
		return nil, err
	}
	return code, nil
}

// Get returns the code stored under hash.
func (s *Store) Get(hash string) (*Code, error) {
	if !isHash(hash) {
		return nil, fmt.Errorf("%w: invalid code hash %q", ErrCodeNotFound, hash)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(s.path(common.HexToHash(hash)))
}

// Remove deletes the code stored under hash.
func (s *Store) Remove(hash string) error {
	if !isHash(hash) {
		return fmt.Errorf("%w: invalid code hash %q", ErrCodeNotFound, hash)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(common.HexToHash(hash)))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrCodeNotFound, hash)
	}
	return err
}

// Entries lists every stored hash, oldest upload first. ABI-only uploads
// come back with a nil Value.
func (s *Store) Entries(ctx context.Context) ([]StorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(s.dir, "0x*.json"))
	if err != nil {
		return nil, err
	}

	codes := make([]*Code, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := s.read(f)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	sort.SliceStable(codes, func(i, j int) bool {
		if !codes[i].UploadedAt.Equal(codes[j].UploadedAt) {
			return codes[i].UploadedAt.Before(codes[j].UploadedAt)
		}
		return codes[i].Hash.Hex() < codes[j].Hash.Hex()
	})

	entries := make([]StorageEntry, len(codes))
	for i, c := range codes {
		entries[i] = StorageEntry{Key: c.Hash}
		if c.Deployable() {
			entries[i].Value = c
		}
	}
	return entries, nil
}

func (s *Store) put(code *Code) error {
	data, err := json.MarshalIndent(code, "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating code dir: %w", err)
	}
	return os.WriteFile(s.path(code.Hash), data, 0o600)
}

func (s *Store) read(path string) (*Code, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrCodeNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return nil, err
	}
	var c Code
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &c, nil
}

func (s *Store) path(h common.Hash) string {
	return filepath.Join(s.dir, h.Hex()+".json")
}

func isHash(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*common.HashLength {
		return false
	}
	_, err := hexutil.Decode("0x" + s)
	return err == nil
}
