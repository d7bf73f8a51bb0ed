package report

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Parser deserializes an export file back into a document.
type Parser interface {
	Parse(data []byte) (*snapshot.Document, error)
}

// ParserFor picks a parser from a file name.
func ParserFor(path string) Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &JSONParser{}
	}
	return &MarkdownParser{}
}

// JSONParser parses a JSON export.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*snapshot.Document, error) {
	doc, err := snapshot.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}
	return doc, nil
}

// MarkdownParser parses a Markdown export by extracting the embedded base64
// JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*snapshot.Document, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid idlesnap export: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid idlesnap export: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid idlesnap export: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid idlesnap export: corrupted base64 payload: %w", err)
	}

	doc, err := snapshot.Parse(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("not a valid idlesnap export: %w", err)
	}
	return doc, nil
}
