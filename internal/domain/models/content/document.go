package content

import (
	"encoding/json"
	"strings"
	"time"
)

// RepositoryType is the tenant-facing content category a document belongs to.
// It decides which table and which backend function serve the document.
type RepositoryType string

const (
	RepositoryWods        RepositoryType = "wods"
	RepositoryBlocks      RepositoryType = "blocks"
	RepositoryPrograms    RepositoryType = "programs"
	RepositoryAIAgents    RepositoryType = "ai_agents"
	RepositoryVideos      RepositoryType = "videos"
	RepositoryDocuments   RepositoryType = "documents"
	RepositoryPrompts     RepositoryType = "prompts"
	RepositoryAutomations RepositoryType = "automations"
	RepositoryImages      RepositoryType = "images"
	RepositoryPDFs        RepositoryType = "pdfs"
)

// RepositoryTypes lists every known repository type
var RepositoryTypes = []RepositoryType{
	RepositoryWods, RepositoryBlocks, RepositoryPrograms, RepositoryAIAgents, RepositoryVideos,
	RepositoryDocuments, RepositoryPrompts, RepositoryAutomations, RepositoryImages, RepositoryPDFs,
}

// Valid reports whether t is a known repository type
func (t RepositoryType) Valid() bool {
	for _, known := range RepositoryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseRepositoryType accepts the canonical names plus the dashed/singular
// spellings used across the admin screens ("ai-agents", "wod", "block").
func ParseRepositoryType(s string) (RepositoryType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "wod":
		s = "wods"
	case "block":
		s = "blocks"
	case "program":
		s = "programs"
	}
	t := RepositoryType(s)
	return t, t.Valid()
}

// Status is the publication state of a document
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived" // legacy rows only
)

// ContentDocument is the canonical record for one editable item.
// Version strictly increases on every authoritative update.
type ContentDocument struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	RepositoryType RepositoryType `json:"repository_type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Content        Body           `json:"content"`
	Metadata       Metadata       `json:"metadata"`
	Status         Status         `json:"status"`
	CreatedBy      string         `json:"created_by"`
	UpdatedBy      string         `json:"updated_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Version        int            `json:"version"`
	Tags           []string       `json:"tags"`
}

// Body is the uniform content shape shared by every repository type.
// Block repository rows additionally carry BlockDetails, flattened into the
// same JSON object.
type Body struct {
	Pages    []Page   `json:"pages"`
	Settings Settings `json:"settings"`
	*BlockDetails
}

// BlockDetails holds the workout-block specific columns
type BlockDetails struct {
	Instructions    string   `json:"instructions,omitempty"`
	EquipmentNeeded []string `json:"equipment_needed,omitempty"`
	BlockCategory   string   `json:"block_category,omitempty"`
}

// Settings are the editor-level document settings
type Settings struct {
	Communities       []string `json:"communities,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	People            []string `json:"people,omitempty"`
	Difficulty        int      `json:"difficulty,omitempty"` // 1..5, 0 = unset
	EstimatedDuration int      `json:"estimatedDuration,omitempty"`
	AutoSaveEnabled   bool     `json:"autoSaveEnabled,omitempty"`
}

// Metadata holds listing/display attributes that are not part of the content body
type Metadata struct {
	ThumbnailURL             string `json:"thumbnail_url,omitempty"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes,omitempty"`
	DifficultyLevel          string `json:"difficulty_level,omitempty"`
	FolderID                 string `json:"folder_id,omitempty"`
}

// Page is one page of a document. Order is dense and assigned by the editor.
type Page struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
	Order  int     `json:"order"`
}

// TempIDPrefix marks client-only documents that have no server record yet
const TempIDPrefix = "temp-"

// IsPlaceholder reports whether the document was synthesized locally and never saved
func (d *ContentDocument) IsPlaceholder() bool {
	return d.ID == "" || strings.HasPrefix(d.ID, TempIDPrefix)
}

// Clone returns a deep copy of the document
func (d *ContentDocument) Clone() *ContentDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Content = d.Content.Clone()
	out.Tags = cloneStrings(d.Tags)
	return &out
}

// Clone returns a deep copy of the body
func (b Body) Clone() Body {
	out := Body{
		Pages:    ClonePages(b.Pages),
		Settings: b.Settings.Clone(),
	}
	if b.BlockDetails != nil {
		details := *b.BlockDetails
		details.EquipmentNeeded = cloneStrings(b.BlockDetails.EquipmentNeeded)
		out.BlockDetails = &details
	}
	return out
}

// MarshalJSON keeps "pages" an array even when the document has none
func (b Body) MarshalJSON() ([]byte, error) {
	type body Body
	if b.Pages == nil {
		b.Pages = []Page{}
	}
	return json.Marshal(body(b))
}

// Clone returns a deep copy of the settings
func (s Settings) Clone() Settings {
	out := s
	out.Communities = cloneStrings(s.Communities)
	out.Tags = cloneStrings(s.Tags)
	out.People = cloneStrings(s.People)
	return out
}

// Clone returns a deep copy of the page
func (p Page) Clone() Page {
	out := p
	if p.Blocks != nil {
		out.Blocks = make([]Block, len(p.Blocks))
		for i := range p.Blocks {
			out.Blocks[i] = p.Blocks[i].Clone()
		}
	}
	return out
}

// ClonePages deep-copies a page slice
func ClonePages(pages []Page) []Page {
	if pages == nil {
		return nil
	}
	out := make([]Page, len(pages))
	for i := range pages {
		out[i] = pages[i].Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
