package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/compozy/helpdesk/pkg/logger"
)

// extractPDF returns the plain text of every page. The parser panics on some
// malformed files, so panics are turned into errors.
func extractPDF(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("knowledge: parse pdf %q: %v", path, r)
		}
	}()
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("knowledge: open pdf %q: %w", path, err)
	}
	defer file.Close()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("knowledge: extract pdf %q: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("knowledge: read pdf text %q: %w", path, err)
	}
	text = buf.String()
	if strings.TrimSpace(text) == "" {
		logger.FromContext(ctx).Warn("PDF has no extractable text", "path", path, "pages", reader.NumPage())
	}
	return text, nil
}
