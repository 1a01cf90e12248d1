package models

// File statuses as reported by the GitHub pull request files API. The git
// provider maps its diff actions onto the same values.
const (
	FileAdded    = "added"
	FileRemoved  = "removed"
	FileModified = "modified"
	FileRenamed  = "renamed"
	FileCopied   = "copied"
	FileChanged  = "changed"
)

// ChangedFile is one entry of a pull request diff. Path is the location in
// the head commit, or the deleted location for removed files.
type ChangedFile struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previous_path,omitempty"`
	Status       string `json:"status"`
}

// ChangedFiles is the complete changed-file list of a pull request.
type ChangedFiles struct {
	// Source is "api" or "git".
	Source string        `json:"source"`
	Files  []ChangedFile `json:"files"`

	// Truncated is set when the API stopped listing files at its cap.
	Truncated bool `json:"truncated,omitempty"`
}

// Paths returns the changed paths in reported order. Renames contribute only
// their new location.
func (c *ChangedFiles) Paths() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		if f.Path == "" {
			continue
		}
		out = append(out, f.Path)
	}
	return out
}
