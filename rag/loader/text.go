package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/policynav/policynav/rag"
)

// TextLoader loads plain text files as a single Document.
// The first non-empty line becomes the document title, which retrieval
// results surface as the source citation.
type TextLoader struct{}

// NewTextLoader creates a TextLoader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text file and returns it as a single Document.
func (l *TextLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("text loader: %w", err)
	}

	content := string(data)
	meta := map[string]any{
		"source_file":  filepath.Base(source),
		"source_path":  source,
		"content_type": "text/plain",
		"loader":       "text",
	}
	if title := firstLine(content); title != "" {
		meta["title"] = title
	}

	doc := rag.Document{
		ID:       source,
		Content:  content,
		Metadata: meta,
	}

	return []rag.Document{doc}, nil
}

// SupportedTypes returns the extensions handled by TextLoader.
func (l *TextLoader) SupportedTypes() []string {
	return []string{".txt"}
}

// firstLine returns the first non-empty line, truncated for use as a title.
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return rag.TruncateText(trimmed, 120)
		}
	}
	return ""
}
