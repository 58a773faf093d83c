package chunk

// Document is one loaded source file before splitting.
type Document struct {
	// ID is stable across runs; the relative path of the file.
	ID          string
	Source      string
	ContentType string
	Text        string
	Metadata    map[string]any
}

// Settings controls splitting and text cleanup.
type Settings struct {
	Size              int
	Overlap           int
	Deduplicate       bool
	NormalizeNewlines bool
}

// Chunk is a slice of a document ready to be embedded and stored.
type Chunk struct {
	ID       string
	Source   string
	Index    int
	Text     string
	Hash     string
	Metadata map[string]any
}
