package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
)

// HTMLExporter renders a document as a standalone HTML page. The story body
// is treated as Markdown so any formatting the model produced survives.
type HTMLExporter struct{}

// Export writes a minimal self-contained HTML document.
func (e *HTMLExporter) Export(w io.Writer, doc Document) error {
	if strings.TrimSpace(doc.Story) == "" {
		return ErrEmptyStory
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(doc.Story), &body); err != nil {
		return fmt.Errorf("failed to render story body: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s Story</title>\n", html.EscapeString(doc.Genre)))
	sb.WriteString("<style>body{max-width:42em;margin:2em auto;font-family:Georgia,serif;line-height:1.6;padding:0 1em}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("<h1>%s Story</h1>\n", html.EscapeString(doc.Genre)))
	sb.WriteString(fmt.Sprintf("<p><em>Tone: %s · Generated: %s</em></p>\n",
		html.EscapeString(doc.Tone), doc.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.Write(body.Bytes())
	sb.WriteString("</body>\n</html>\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write HTML document: %w", err)
	}
	return nil
}

// Extension returns "html".
func (e *HTMLExporter) Extension() string {
	return "html"
}

// Verify HTMLExporter implements Exporter.
var _ Exporter = (*HTMLExporter)(nil)
