package chunk

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/compozy/helpdesk/engine/core"
)

var (
	newlinePattern    = regexp.MustCompile(`\r\n|\r`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// Processor handles chunking according to supplied configuration.
type Processor struct {
	settings Settings
	splitter textsplitter.TextSplitter
}

// NewProcessor builds a processor with sanitized defaults.
func NewProcessor(settings Settings) (*Processor, error) {
	if settings.Size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if settings.Overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", settings.Overlap, settings.Size)
	}
	return &Processor{
		settings: settings,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(settings.Size),
			textsplitter.WithChunkOverlap(settings.Overlap),
		),
	}, nil
}

// Process splits documents into chunks whose IDs are stable across runs, so
// re-ingesting a file overwrites its points instead of duplicating them.
func (p *Processor) Process(collection string, docs []Document) ([]Chunk, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("chunk: collection is required")
	}
	if len(docs) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{})
	chunks := make([]Chunk, 0, len(docs))
	for di := range docs {
		doc := docs[di]
		text := p.preprocess(doc.Text)
		if text == "" {
			continue
		}
		segments, err := p.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("chunk: split document %s: %w", doc.ID, err)
		}
		for idx, segment := range segments {
			chunkText := strings.TrimSpace(segment)
			if chunkText == "" {
				continue
			}
			hash := core.ContentHash(chunkText)
			if p.settings.Deduplicate {
				if _, exists := seen[hash]; exists {
					continue
				}
				seen[hash] = struct{}{}
			}
			metadata := core.CloneMap(doc.Metadata)
			if metadata == nil {
				metadata = make(map[string]any)
			}
			metadata["chunk_index"] = idx
			metadata["source_id"] = doc.ID
			if doc.Source != "" {
				metadata["source"] = doc.Source
			}
			if doc.ContentType != "" {
				metadata["content_type"] = doc.ContentType
			}
			chunks = append(chunks, Chunk{
				ID:       pointID(collection, doc.ID, idx),
				Source:   doc.Source,
				Index:    idx,
				Text:     chunkText,
				Hash:     hash,
				Metadata: metadata,
			})
		}
	}
	return chunks, nil
}

func (p *Processor) preprocess(text string) string {
	normalized := strings.ToValidUTF8(text, "")
	normalized = strings.ReplaceAll(normalized, "\x00", "")
	if p.settings.NormalizeNewlines {
		normalized = newlinePattern.ReplaceAllString(normalized, "\n")
		normalized = blankLinesPattern.ReplaceAllString(normalized, "\n\n")
	}
	return strings.TrimSpace(normalized)
}

// pointID derives a UUIDv5 accepted by Qdrant as a point identifier.
func pointID(collection, docID string, idx int) string {
	name := fmt.Sprintf("%s::%s::%d", collection, docID, idx)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
