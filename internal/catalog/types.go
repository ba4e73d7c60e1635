package catalog

import "aigym/internal/domain/models/content"

// BlockSpec describes one entry of the block palette
type BlockSpec struct {
	Type        content.BlockType      `yaml:"type" json:"type"`
	Label       string                 `yaml:"label" json:"label"`
	Description string                 `yaml:"description" json:"description,omitempty"`
	Icon        string                 `yaml:"icon" json:"icon"`
	Defaults    map[string]interface{} `yaml:"defaults" json:"defaults"`

	// Category is set during loading from the enclosing category
	Category string `yaml:"-" json:"category"`
}

// Category groups palette entries
type Category struct {
	ID     string      `yaml:"id" json:"id"`
	Label  string      `yaml:"label" json:"label"`
	Blocks []BlockSpec `yaml:"blocks" json:"blocks"`
}

// File is the layout of the embedded YAML file
type File struct {
	Categories []Category `yaml:"categories"`
}
