package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/engine/knowledge/chunk"
)

// MaxTextFileSizeBytes caps plain text and markdown inputs.
const MaxTextFileSizeBytes = 4 * 1024 * 1024

var pdfExtractor = extractPDF

// sourceFile is a document discovered under the ingest directory.
type sourceFile struct {
	abs string
	rel string
}

// enumerateSources lists files under dir whose extension is accepted, in a
// stable order.
func enumerateSources(dir string, extensions []string) ([]sourceFile, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("knowledge: ingest directory is required")
	}
	if len(extensions) == 0 {
		return nil, errors.New("knowledge: at least one file extension is required")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("knowledge: resolve ingest directory %q: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("knowledge: stat ingest directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge: %q is not a directory", dir)
	}
	pattern := "**/*{" + strings.Join(extensions, ",") + "}"
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("knowledge: glob %q failed: %w", pattern, err)
	}
	sort.Strings(matches)
	files := make([]sourceFile, 0, len(matches))
	for _, rel := range matches {
		files = append(files, sourceFile{abs: filepath.Join(root, filepath.FromSlash(rel)), rel: rel})
	}
	return files, nil
}

// loadDocument reads a file into a chunkable document. A nil document means the
// file had no extractable text.
func loadDocument(ctx context.Context, file sourceFile) (*chunk.Document, error) {
	contentType := detectContentType(file.abs)
	var (
		text string
		err  error
	)
	if strings.Contains(contentType, "pdf") || strings.EqualFold(filepath.Ext(file.abs), ".pdf") {
		text, err = pdfExtractor(ctx, file.abs)
	} else {
		text, err = readTextFile(file.abs, contentType)
	}
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return &chunk.Document{
		ID:          file.rel,
		Source:      file.rel,
		ContentType: contentType,
		Text:        text,
		Metadata: map[string]any{
			"filename":     filepath.Base(file.rel),
			"content_hash": core.ContentHash(text),
		},
	}, nil
}

func detectContentType(path string) string {
	detected, err := mimetype.DetectFile(path)
	if err != nil || detected == nil {
		return "application/octet-stream"
	}
	return detected.String()
}

func readTextFile(path, contentType string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("knowledge: open %q: %w", path, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxTextFileSizeBytes+1))
	if err != nil {
		return "", fmt.Errorf("knowledge: read %q: %w", path, err)
	}
	if len(data) > MaxTextFileSizeBytes {
		return "", fmt.Errorf("knowledge: file %q exceeds maximum size of %d bytes", path, MaxTextFileSizeBytes)
	}
	return decodeText(data, contentType)
}

// decodeText transcodes legacy encodings to UTF-8.
func decodeText(data []byte, contentType string) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return string(decoded), nil
}
