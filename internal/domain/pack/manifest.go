package pack

// FormatVersion is the manifest format understood by pack consumers.
const FormatVersion = 1

// FileEntry describes one pack file.
type FileEntry struct {
	// Hash is the lower-case hex SHA-1 of the file bytes.
	Hash string `json:"hash"`
	// Size is the file length in bytes.
	Size int64 `json:"size"`
}

// Content is the body of a manifest.
type Content struct {
	// Parent is a local parent marker; always empty for generated manifests.
	Parent string `json:"parent"`
	// RemoteParent is the pack directory name.
	RemoteParent string `json:"remote_parent"`
	// Files maps slash-separated paths relative to the pack root to their entries.
	Files map[string]FileEntry `json:"files"`
}

// Manifest is the published content document.
type Manifest struct {
	FormatVersion int     `json:"formatVersion"`
	Content       Content `json:"content"`
}

// NewManifest returns an empty manifest for the given remote parent.
func NewManifest(remoteParent string) *Manifest {
	return &Manifest{
		FormatVersion: FormatVersion,
		Content: Content{
			RemoteParent: remoteParent,
			Files:        make(map[string]FileEntry),
		},
	}
}

// Add records an entry, replacing any previous entry for the same path.
func (m *Manifest) Add(path string, entry FileEntry) {
	if m.Content.Files == nil {
		m.Content.Files = make(map[string]FileEntry)
	}

	m.Content.Files[path] = entry
}
