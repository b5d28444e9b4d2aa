// Package parser extracts plain section text from source files on the
// shelf. Output is reading-order text with blank-line paragraph breaks,
// the shape the chunk builder and the file renderer consume. Structural
// markup (headings, emphasis, layout) is flattened; headings survive as
// their own paragraphs.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Section is one spine entry extracted from a source file. Single-section
// formats (txt, md, html, docx) yield one; paged formats (pdf) yield one
// per page.
type Section struct {
	Title string
	Text  string
}

// Parser converts raw file bytes into ordered sections.
type Parser interface {
	Parse(r io.Reader, filename string) ([]Section, error)
}

// SupportedExtensions lists file extensions the shelf can load.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// joinParagraphs assembles paragraphs into section text with blank-line
// breaks, dropping empty entries.
func joinParagraphs(paragraphs []string) string {
	var kept []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
