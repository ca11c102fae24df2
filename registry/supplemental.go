package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
)

// AddSupplemental appends tokens to the supplemental list. Addresses already listed are skipped.
// The list feeds the last pass of the next rebuild; the published snapshot is not touched.
func (r *Registry) AddSupplemental(tokens ...tokenregistry.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tokens {
		r.appendSupplementalLocked(t)
	}
}

// SupplementalList returns a copy of the supplemental list.
func (r *Registry) SupplementalList() []tokenregistry.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tokenregistry.Token, len(r.supplemental))
	for i, t := range r.supplemental {
		out[i] = t.Clone()
	}
	return out
}

// SaveSupplemental writes the supplemental list to the configured store.
func (r *Registry) SaveSupplemental(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	list := r.SupplementalList()
	if err := r.store.Save(ctx, list); err != nil {
		return fmt.Errorf("save supplemental list: %w", err)
	}
	r.logger.Debug("Supplemental list saved", "assets", len(list))
	return nil
}

// LoadSupplemental appends the stored supplemental list to the in-memory one.
func (r *Registry) LoadSupplemental(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	tokens, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load supplemental list: %w", err)
	}
	r.AddSupplemental(tokens...)
	r.logger.Debug("Supplemental list loaded", "assets", len(tokens))
	return nil
}

// MUST be called with r.mu held.
func (r *Registry) appendSupplementalLocked(t tokenregistry.Token) {
	addr := tokenregistry.NormalizeAddress(t.Address)
	if addr == "" {
		return
	}
	for _, s := range r.supplemental {
		if s.Address == addr {
			return
		}
	}
	c := t.Clone()
	c.Address = addr
	r.supplemental = append(r.supplemental, c)
}

// FileStore keeps the supplemental list in a JSON file.
type FileStore struct {
	Path string
}

type fileStoreDocument struct {
	Tokens []tokenregistry.Token `json:"tokens"`
}

// Load reads the list. A missing file is an empty list.
func (s *FileStore) Load(ctx context.Context) ([]tokenregistry.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read supplemental file: %w", err)
	}

	var doc fileStoreDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal supplemental file: %w", err)
	}
	return doc.Tokens, nil
}

// Save replaces the file atomically: the list is written to a temporary file in the same
// directory and renamed over the target.
func (s *FileStore) Save(ctx context.Context, tokens []tokenregistry.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir supplemental dir: %w", err)
	}

	if tokens == nil {
		tokens = []tokenregistry.Token{}
	}
	b, err := json.MarshalIndent(fileStoreDocument{Tokens: tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal supplemental list: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".supplemental-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename supplemental file: %w", err)
	}
	return nil
}
