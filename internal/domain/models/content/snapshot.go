package content

import "time"

// SnapshotData is the in-progress editor state captured by an auto-save
type SnapshotData struct {
	Pages    []Page   `json:"pages"`
	Settings Settings `json:"settings"`
}

// SnapshotMetadata describes when and from which document version a snapshot was taken
type SnapshotMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
}

// Snapshot is a non-authoritative auto-save of one editing session.
// Snapshots never change the document version.
type Snapshot struct {
	ID        string           `json:"id"`
	ContentID string           `json:"content_id"`
	SessionID string           `json:"session_id"`
	Data      SnapshotData     `json:"snapshot_data"`
	Metadata  SnapshotMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
}
