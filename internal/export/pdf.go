package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page geometry for A4 portrait with the core Helvetica font. Line wrapping
// and pagination are done here because pdfcpu's create primitives place text
// but do not flow it across pages.
const (
	pdfLineWidth    = 88 // characters per wrapped line at 11pt
	pdfLinesPerPage = 52
	pdfMarginLeft   = 50.0
	pdfTopBaseline  = 780.0
	pdfTitleSize    = 16
	pdfBodySize     = 11
	pdfLineHeight   = 14.0
)

// PDFExporter renders a document as PDF via pdfcpu's JSON page creation.
type PDFExporter struct{}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfText struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"position"`
	Font     pdfFont    `json:"font"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfCreate struct {
	Pages map[string]pdfPage `json:"pages"`
}

// Export writes the story as a paginated PDF. Runes the Latin-1 code page
// cannot represent are degraded to '?' rather than failing the export, since
// the core Helvetica font has no glyphs for them.
func (e *PDFExporter) Export(w io.Writer, doc Document) error {
	if strings.TrimSpace(doc.Story) == "" {
		return ErrEmptyStory
	}

	header := []string{
		fmt.Sprintf("%s Story", doc.Genre),
		fmt.Sprintf("Tone: %s    Generated: %s", doc.Tone, doc.GeneratedAt.Format("2006-01-02 15:04:05")),
	}
	lines := wrapLines(degradeToLatin1(doc.Story), pdfLineWidth)

	spec := pdfCreate{Pages: make(map[string]pdfPage)}
	pageNum := 1
	for start := 0; start < len(lines) || pageNum == 1; start += pdfLinesPerPage {
		end := start + pdfLinesPerPage
		if end > len(lines) {
			end = len(lines)
		}

		var texts []pdfText
		y := pdfTopBaseline
		if pageNum == 1 {
			texts = append(texts, pdfText{
				Value:    degradeToLatin1(header[0]),
				Position: [2]float64{pdfMarginLeft, y},
				Font:     pdfFont{Name: "Helvetica-Bold", Size: pdfTitleSize},
			})
			y -= 2 * pdfLineHeight
			texts = append(texts, pdfText{
				Value:    degradeToLatin1(header[1]),
				Position: [2]float64{pdfMarginLeft, y},
				Font:     pdfFont{Name: "Helvetica-Oblique", Size: pdfBodySize},
			})
			y -= 2 * pdfLineHeight
		}
		if start < end {
			texts = append(texts, pdfText{
				Value:    strings.Join(lines[start:end], "\n"),
				Position: [2]float64{pdfMarginLeft, y},
				Font:     pdfFont{Name: "Helvetica", Size: pdfBodySize},
			})
		}

		spec.Pages[fmt.Sprintf("%d", pageNum)] = pdfPage{Content: pdfContent{Text: texts}}
		pageNum++
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal page spec: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(specJSON), w, conf); err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	return nil
}

// Extension returns "pdf".
func (e *PDFExporter) Extension() string {
	return "pdf"
}

// degradeToLatin1 replaces every rune outside the Latin-1 range with '?'.
func degradeToLatin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return '?'
		}
		return r
	}, s)
}

// wrapLines breaks text into lines of at most width characters, wrapping on
// word boundaries and preserving paragraph breaks as empty lines.
func wrapLines(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, " \t")
		if para == "" {
			lines = append(lines, "")
			continue
		}

		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len(word) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
		}
	}
	return lines
}

// Verify PDFExporter implements Exporter.
var _ Exporter = (*PDFExporter)(nil)
