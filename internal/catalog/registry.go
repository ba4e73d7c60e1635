package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"aigym/internal/domain/models/content"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the block palette and builds new blocks from its defaults
type Registry struct {
	categories []Category
	specs      map[content.BlockType]*BlockSpec
	mu         sync.RWMutex
}

// NewRegistry loads the embedded palette. Every entry's defaults are decoded
// once so a bad palette fails at startup rather than when a user adds a block.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/blocks.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read config/blocks.yaml: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes
func Parse(data []byte) (*Registry, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block catalog: %w", err)
	}

	r := &Registry{
		categories: file.Categories,
		specs:      make(map[content.BlockType]*BlockSpec),
	}

	for ci := range r.categories {
		category := &r.categories[ci]
		for bi := range category.Blocks {
			spec := &category.Blocks[bi]
			spec.Category = category.ID

			if _, dup := r.specs[spec.Type]; dup {
				return nil, fmt.Errorf("block type %q listed twice", spec.Type)
			}
			if _, err := spec.defaultData(); err != nil {
				return nil, fmt.Errorf("block type %q: %w", spec.Type, err)
			}
			r.specs[spec.Type] = spec
		}
	}

	return r, nil
}

// Categories returns the palette in YAML order
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Spec returns the palette entry for a kind
func (r *Registry) Spec(kind content.BlockType) (*BlockSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[kind]
	return spec, ok
}

// NewBlock creates a block of the given kind for a page, filled with the
// palette defaults. Order is left at zero; the store assigns it on insert.
func (r *Registry) NewBlock(kind content.BlockType, pageID string) (content.Block, error) {
	spec, ok := r.Spec(kind)
	if !ok {
		return content.Block{}, fmt.Errorf("block type %q is not in the catalog", kind)
	}

	data, err := spec.defaultData()
	if err != nil {
		return content.Block{}, err
	}

	return content.Block{
		ID:     "block-" + uuid.NewString(),
		Type:   kind,
		Title:  spec.Label,
		PageID: pageID,
		Data:   data,
	}, nil
}

// defaultData decodes the YAML defaults through the same strict decoder used
// for documents coming from the backend
func (s *BlockSpec) defaultData() (content.BlockData, error) {
	raw, err := json.Marshal(s.Defaults)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	return content.DecodeBlockData(s.Type, raw)
}
