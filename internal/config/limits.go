package config

import "time"

const (
	// MaxTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxDescriptionLength is the maximum length for document descriptions.
	MaxDescriptionLength = 5000

	// MaxTags is the maximum number of tags on one document.
	MaxTags = 50

	// MaxPages is the maximum number of pages in one document.
	MaxPages = 100

	// MaxBlocksPerPage is the maximum number of blocks on a single page.
	MaxBlocksPerPage = 500

	// MaxBatchSize is the maximum number of items in one batch update.
	MaxBatchSize = 100

	// MaxSnapshotsPerSession is how many auto-save snapshots are kept per
	// (document, session). Older ones are pruned on write.
	MaxSnapshotsPerSession = 20

	// MaxListLimit caps list page size.
	MaxListLimit = 200

	// DefaultListLimit is used when a list request has no limit.
	DefaultListLimit = 50
)

const (
	// DefaultAutoSaveInterval is how often the editor flushes dirty state.
	DefaultAutoSaveInterval = 2 * time.Second

	// DefaultMessageTTL is how long error and success messages stay visible.
	DefaultMessageTTL = 5 * time.Second
)
