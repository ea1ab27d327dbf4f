// Package export renders a committed story into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Export errors.
var (
	// ErrUnknownFormat is returned for a format with no registered exporter.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrEmptyStory is returned when there is no story text to export.
	ErrEmptyStory = errors.New("empty story")
)

// Document is the exportable view of a committed story.
type Document struct {
	Story       string
	Genre       string
	Tone        string
	GeneratedAt time.Time
}

// Exporter renders a document into a byte stream.
type Exporter interface {
	// Export writes the rendered document to w. The committed story is
	// never modified by an export, successful or not.
	Export(w io.Writer, doc Document) error

	// Extension returns the file extension for this format, without the dot.
	Extension() string
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "pdf":
		return &PDFExporter{}, nil
	case "txt":
		return &TextExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Formats lists the supported export format names.
func Formats() []string {
	return []string{"pdf", "txt", "html"}
}

// Filename returns the export file name for a generation time, embedding
// the timestamp at one-second resolution.
func Filename(t time.Time, ext string) string {
	return fmt.Sprintf("story_%s.%s", t.Format("20060102_150405"), ext)
}
