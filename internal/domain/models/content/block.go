package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"aigym/internal/domain"
)

// BlockType is the kind of a page block. The kind decides the shape of Block.Data.
type BlockType string

const (
	BlockSectionHeader BlockType = "section-header"
	BlockRichText      BlockType = "rich-text"
	BlockList          BlockType = "list"
	BlockDivision      BlockType = "division"
	BlockQuote         BlockType = "quote"
	BlockQuiz          BlockType = "quiz"
	BlockImageUpload   BlockType = "image-upload"
	BlockExercise      BlockType = "exercise"

	// Content-reference kinds embed an item picked from another repository
	BlockVideo      BlockType = "video"
	BlockAIAgent    BlockType = "ai-agent"
	BlockDocument   BlockType = "document"
	BlockImage      BlockType = "image"
	BlockPDF        BlockType = "pdf"
	BlockPrompts    BlockType = "prompts"
	BlockAutomation BlockType = "automation"
	BlockWods       BlockType = "wods"
	BlockBlocks     BlockType = "blocks"
)

// blockFactories maps every kind to a constructor for its empty payload
var blockFactories = map[BlockType]func() BlockData{
	BlockSectionHeader: func() BlockData { return &SectionHeaderData{} },
	BlockRichText:      func() BlockData { return &RichTextData{} },
	BlockList:          func() BlockData { return &ListData{} },
	BlockDivision:      func() BlockData { return &DivisionData{} },
	BlockQuote:         func() BlockData { return &QuoteData{} },
	BlockQuiz:          func() BlockData { return &QuizData{} },
	BlockImageUpload:   func() BlockData { return &ImageUploadData{} },
	BlockExercise:      func() BlockData { return &ExerciseData{} },
	BlockVideo:         func() BlockData { return &ReferenceData{kind: BlockVideo} },
	BlockAIAgent:       func() BlockData { return &ReferenceData{kind: BlockAIAgent} },
	BlockDocument:      func() BlockData { return &ReferenceData{kind: BlockDocument} },
	BlockImage:         func() BlockData { return &ReferenceData{kind: BlockImage} },
	BlockPDF:           func() BlockData { return &ReferenceData{kind: BlockPDF} },
	BlockPrompts:       func() BlockData { return &ReferenceData{kind: BlockPrompts} },
	BlockAutomation:    func() BlockData { return &ReferenceData{kind: BlockAutomation} },
	BlockWods:          func() BlockData { return &ReferenceData{kind: BlockWods} },
	BlockBlocks:        func() BlockData { return &ReferenceData{kind: BlockBlocks} },
}

// Valid reports whether t is a known block kind
func (t BlockType) Valid() bool {
	_, ok := blockFactories[t]
	return ok
}

// BlockData is the typed payload of a block. Each kind has exactly one payload type.
type BlockData interface {
	Kind() BlockType
	Validate() error
	clone() BlockData
}

// NewBlockData returns the empty payload for a kind
func NewBlockData(kind BlockType) (BlockData, error) {
	factory, ok := blockFactories[kind]
	if !ok {
		return nil, domain.NewValidationError("type", "unknown block type %q", kind)
	}
	return factory(), nil
}

// DecodeBlockData decodes raw JSON into the payload for kind.
// Unknown kinds, unknown fields and rule violations are rejected.
// Absent or null data yields the empty payload.
func DecodeBlockData(kind BlockType, raw json.RawMessage) (BlockData, error) {
	data, err := NewBlockData(kind)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(data); err != nil {
			return nil, domain.NewValidationError("data", "invalid %s payload: %v", kind, err)
		}
	}

	if err := data.Validate(); err != nil {
		return nil, domain.NewValidationError("data", "invalid %s payload: %v", kind, err)
	}
	return data, nil
}

// Block is one element on a page
type Block struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Order       int       `json:"order"`
	PageID      string    `json:"pageId"`
	Data        BlockData `json:"data"`
}

type blockWire struct {
	ID          string          `json:"id"`
	Type        BlockType       `json:"type"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Content     string          `json:"content,omitempty"`
	Order       int             `json:"order"`
	PageID      string          `json:"pageId"`
	Data        json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the block and its kind-specific payload
func (b *Block) UnmarshalJSON(raw []byte) error {
	var wire blockWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.NewValidationError("block", "invalid block: %v", err)
	}
	if wire.ID == "" {
		return domain.NewValidationError("block.id", "is required")
	}

	data, err := DecodeBlockData(wire.Type, wire.Data)
	if err != nil {
		return fmt.Errorf("block %s: %w", wire.ID, err)
	}

	*b = Block{
		ID:          wire.ID,
		Type:        wire.Type,
		Title:       wire.Title,
		Description: wire.Description,
		Content:     wire.Content,
		Order:       wire.Order,
		PageID:      wire.PageID,
		Data:        data,
	}
	return nil
}

// MarshalJSON writes an empty object for blocks without a payload
func (b Block) MarshalJSON() ([]byte, error) {
	data := b.Data
	if data == nil {
		if empty, err := NewBlockData(b.Type); err == nil {
			data = empty
		} else {
			data = &DivisionData{}
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockWire{
		ID:          b.ID,
		Type:        b.Type,
		Title:       b.Title,
		Description: b.Description,
		Content:     b.Content,
		Order:       b.Order,
		PageID:      b.PageID,
		Data:        payload,
	})
}

// Clone returns a deep copy of the block
func (b Block) Clone() Block {
	out := b
	if b.Data != nil {
		out.Data = b.Data.clone()
	}
	return out
}

// BlockPatch is a partial block update. Nil fields are left untouched.
// Data replaces the whole payload and must have the block's kind.
type BlockPatch struct {
	Title       *string
	Description *string
	Content     *string
	Data        BlockData
}

// Apply merges the patch into the block. It returns false, leaving the block
// untouched, when Data has a different kind than the block.
func (p BlockPatch) Apply(b *Block) bool {
	if p.Data != nil && p.Data.Kind() != b.Type {
		return false
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.Data != nil {
		b.Data = p.Data.clone()
	}
	return true
}
