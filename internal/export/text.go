package export

import (
	"fmt"
	"io"
	"strings"
)

// TextExporter renders a document as plain UTF-8 text.
type TextExporter struct{}

// Export writes the story with a small metadata header.
func (e *TextExporter) Export(w io.Writer, doc Document) error {
	if strings.TrimSpace(doc.Story) == "" {
		return ErrEmptyStory
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Story\n", doc.Genre))
	sb.WriteString(fmt.Sprintf("Tone: %s\n", doc.Tone))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", doc.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(doc.Story)
	sb.WriteString("\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write text document: %w", err)
	}
	return nil
}

// Extension returns "txt".
func (e *TextExporter) Extension() string {
	return "txt"
}

// Verify TextExporter implements Exporter.
var _ Exporter = (*TextExporter)(nil)
