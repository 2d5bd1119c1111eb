package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-memory/internal/llm"
)

// Format identifies how a document's text is extracted
type Format string

// Known document formats
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatUnknown  Format = "unknown"
)

// DefaultMaxBytes is the largest document FormatExtractor accepts
const DefaultMaxBytes = 5 << 20

// Extractor turns a named document into plain text
type Extractor interface {
	ExtractText(name string, data []byte) (string, error)
}

// DetectFormat picks a format from the file extension, falling back to content sniffing
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return FormatText
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	case ".html", ".htm":
		return FormatHTML
	case ".pdf":
		return FormatPDF
	case ".docx", ".doc":
		return FormatDOCX
	}

	if len(data) == 0 {
		return FormatText
	}
	contentType := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(contentType, "text/html"):
		return FormatHTML
	case strings.HasPrefix(contentType, "text/plain"):
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
			return FormatJSON
		}
		return FormatText
	case contentType == "application/pdf":
		return FormatPDF
	case contentType == "application/zip":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}

// FormatExtractor extracts text from plain text, markdown, JSON and HTML documents.
// Binary office formats are rejected with *UnsupportedFormatError.
type FormatExtractor struct {
	MaxBytes int
}

// NewExtractor returns a FormatExtractor with the default size limit
func NewExtractor() *FormatExtractor {
	return &FormatExtractor{MaxBytes: DefaultMaxBytes}
}

// ExtractText returns the cleaned text of data
func (e *FormatExtractor) ExtractText(name string, data []byte) (string, error) {
	if e.MaxBytes > 0 && len(data) > e.MaxBytes {
		return "", &ExtractionError{Name: name, Cause: fmt.Errorf("document is %d bytes, the limit is %d", len(data), e.MaxBytes)}
	}

	format := DetectFormat(name, data)
	switch format {
	case FormatText, FormatMarkdown:
		if !utf8.Valid(data) {
			return "", &ExtractionError{Name: name, Cause: fmt.Errorf("document is not valid UTF-8")}
		}
		return CleanText(string(data)), nil
	case FormatJSON:
		text, err := jsonText(data)
		if err != nil {
			return "", &ExtractionError{Name: name, Cause: err}
		}
		return text, nil
	case FormatHTML:
		text, err := htmlText(data)
		if err != nil {
			return "", &ExtractionError{Name: name, Cause: err}
		}
		return text, nil
	default:
		return "", &UnsupportedFormatError{Name: name, Format: string(format)}
	}
}

// jsonText re-indents a JSON document, healing minor syntax damage first
func jsonText(data []byte) (string, error) {
	value, err := llm.ParseJSON(string(data))
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return string(out), nil
}

// htmlText extracts readable text from HTML, keeping one line per block element
func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Remove elements that never carry document text
	doc.Find("script, style, noscript, nav, footer, template, svg").Remove()

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").PrependHtml("- ")
	doc.Find("h1, h2, h3, h4, h5, h6, p, div, li, tr, section, article, header, blockquote, pre").AppendHtml("\n")

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return CleanText(body.Text()), nil
}
