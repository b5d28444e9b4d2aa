package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pagefold/readercore/internal/parser"
)

// Open loads a book from disk. A directory becomes a spine of its supported
// files in name order; a single file becomes a spine of the sections its
// parser extracts. The book ID is derived from the path's base name.
func Open(path string, pageChars int) (*Book, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	if info.IsDir() {
		return openDir(path, pageChars)
	}
	return openFile(path, pageChars)
}

func openDir(dir string, pageChars int) (*Book, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read book dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no supported section files in %s", dir)
	}
	sort.Strings(names)

	var contents []SectionContent
	for _, name := range names {
		secs, err := parseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for i, s := range secs {
			contents = append(contents, SectionContent{
				Href:  sectionHref(name, i, len(secs)),
				Title: s.Title,
				Text:  s.Text,
			})
		}
	}
	return New(filepath.Base(dir), contents, pageChars), nil
}

func openFile(path string, pageChars int) (*Book, error) {
	secs, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	var contents []SectionContent
	for i, s := range secs {
		contents = append(contents, SectionContent{
			Href:  sectionHref(name, i, len(secs)),
			Title: s.Title,
			Text:  s.Text,
		})
	}
	id := strings.TrimSuffix(name, filepath.Ext(name))
	return New(id, contents, pageChars), nil
}

func parseFile(path string) ([]parser.Section, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open section file: %w", err)
	}
	defer f.Close()

	secs, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return secs, nil
}

// sectionHref derives a stable, separator-free href for a section. The
// renderer's addressing reserves '@' for intra-section offsets, so hrefs
// must not contain it; file names on a shelf never do.
func sectionHref(filename string, index, total int) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if total == 1 {
		return base
	}
	return fmt.Sprintf("%s-%03d", base, index+1)
}
