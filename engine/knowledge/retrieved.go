package knowledge

// RetrievedContext represents a chunk returned by the retrieval service.
type RetrievedContext struct {
	ID            string
	Content       string
	Score         float64
	TokenEstimate int
	Metadata      map[string]any
}

// Source returns the document path recorded at ingestion time, if any.
func (c RetrievedContext) Source() string {
	if src, ok := c.Metadata["source"].(string); ok {
		return src
	}
	return ""
}

// Texts returns the chunk contents in retrieval order.
func Texts(contexts []RetrievedContext) []string {
	out := make([]string, len(contexts))
	for i := range contexts {
		out[i] = contexts[i].Content
	}
	return out
}
