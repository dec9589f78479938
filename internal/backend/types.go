package backend

// FileNode is one entry in the project tree snapshot. Trees are replaced
// wholesale on re-fetch, never patched in place.
type FileNode struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	IsDirectory bool       `json:"isDirectory"`
	Size        int64      `json:"size,omitempty"`
	Extension   string     `json:"extension,omitempty"`
	Children    []FileNode `json:"children,omitempty"`
}

// Walk visits n and every descendant in depth-first order.
func (n *FileNode) Walk(visit func(*FileNode)) {
	visit(n)
	for i := range n.Children {
		n.Children[i].Walk(visit)
	}
}

// ProjectStats summarizes an opened project.
type ProjectStats struct {
	TotalFiles int   `json:"totalFiles"`
	TotalDirs  int   `json:"totalDirs"`
	TotalSize  int64 `json:"totalSize"`
}

// ProjectInfo is the response to an open-project request.
type ProjectInfo struct {
	Tree        FileNode     `json:"tree"`
	Stats       ProjectStats `json:"stats"`
	DisplayName string       `json:"displayName"`
}

// DirCandidate is one subdirectory in a browse response.
type DirCandidate struct {
	Name             string `json:"name"`
	Path             string `json:"path"`
	LooksLikeProject bool   `json:"looksLikeProject"`
}

// BrowseResult lists subdirectories of a path for the project picker.
type BrowseResult struct {
	NormalizedPath string         `json:"normalizedPath"`
	Subdirectories []DirCandidate `json:"subdirectories"`
}

// FileContent is the response to a read-file request.
type FileContent struct {
	Content          string `json:"content"`
	IsBinary         bool   `json:"isBinary"`
	DetectedLanguage string `json:"detectedLanguage"`
}

// WriteResult reports a persisted file's size after a write.
type WriteResult struct {
	Size      int `json:"size"`
	LineCount int `json:"lineCount"`
}

// IndexResult reports what an indexing pass covered.
type IndexResult struct {
	FilesIndexed  int `json:"filesIndexed"`
	ChunksCreated int `json:"chunksCreated"`
}

// TaskResult is the response to an instruction execution request.
type TaskResult struct {
	Success          bool    `json:"success"`
	GeneratedCode    string  `json:"generatedCode,omitempty"`
	ResultText       string  `json:"resultText,omitempty"`
	Error            string  `json:"error,omitempty"`
	Warning          string  `json:"warning,omitempty"`
	Model            string  `json:"model,omitempty"`
	EstimatedMinutes float64 `json:"estimatedMinutes,omitempty"`
}

// ModelInfo describes one reasoning backend capability.
type ModelInfo struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}
