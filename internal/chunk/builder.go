package chunk

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pagefold/readercore/internal/reader"
)

// Builder produces the chunk set for a book. It performs no I/O of its own
// beyond loading section text through the renderer, and never mutates the
// renderer.
type Builder struct {
	cfg Config
	log *slog.Logger
}

func NewBuilder(cfg Config, log *slog.Logger) *Builder {
	return &Builder{cfg: cfg.withDefaults(), log: log}
}

// Build walks the spine in order, loading each section's text sequentially
// (the renderer keeps a single active section at a time) and splitting
// retained sections into chunks. Sections that fail to load are skipped,
// not fatal.
func (b *Builder) Build(ctx context.Context, bookID string, r reader.Renderer) (*Set, error) {
	set := &Set{BookID: bookID}
	global := 0

	for _, sec := range r.Sections() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text, err := r.SectionText(ctx, sec.Href)
		if err != nil {
			b.log.Warn("section load failed, skipping", "href", sec.Href, "error", err)
			continue
		}
		if skip, reason := b.skipSection(sec.Href, text); skip {
			b.log.Debug("skipping section", "href", sec.Href, "reason", reason)
			continue
		}
		for _, c := range b.SplitSection(sec, text) {
			c.GlobalIndex = global
			global++
			set.Chunks = append(set.Chunks, c)
		}
	}

	b.log.Info("built chunk set", "book_id", bookID, "chunks", len(set.Chunks))
	return set, nil
}

// SplitSection splits one section's text into chunks. Pure: no I/O, no
// renderer access, deterministic for a given text and config. GlobalIndex is
// left zero; Build assigns it across sections.
func (b *Builder) SplitSection(sec reader.Section, text string) []Chunk {
	paras := splitParagraphs(text)
	if len(paras) == 0 {
		return nil
	}

	var chunks []Chunk
	var buf strings.Builder
	bufStart := paras[0].start // source offset the running buffer maps to
	bufEnd := paras[0].start

	flush := func() {
		chunks = append(chunks, Chunk{
			ID:          ChunkID(sec.Href, len(chunks)),
			Text:        buf.String(),
			Href:        sec.Href,
			SpineIndex:  sec.SpineIndex,
			ChunkIndex:  len(chunks),
			StartOffset: bufStart,
			EndOffset:   bufEnd,
		})
	}

	for _, p := range paras {
		// Closing before append keeps chunks near ChunkSize; a single
		// oversized paragraph still becomes one chunk rather than being cut
		// mid-sentence.
		if buf.Len() > 0 && buf.Len()+len(paragraphSep)+len(p.text) > b.cfg.ChunkSize {
			flush()
			tail := overlapTail(buf.String(), b.cfg.Overlap)
			buf.Reset()
			// The seeded tail approximates the source characters just before
			// bufEnd, so the next chunk's start backs up by its length.
			bufStart = bufEnd - len(tail)
			if bufStart < 0 {
				bufStart = 0
			}
			buf.WriteString(tail)
		}
		if buf.Len() == 0 && bufEnd <= p.start {
			bufStart = p.start
		}
		if buf.Len() > 0 {
			buf.WriteString(paragraphSep)
		}
		buf.WriteString(p.text)
		bufEnd = p.end
	}
	if buf.Len() > 0 {
		flush()
	}
	return chunks
}

const paragraphSep = "\n\n"

var blankLineRe = regexp.MustCompile(`\n[ \t\r]*\n+`)

type paragraph struct {
	text  string
	start int // offset of the first retained character in the section text
	end   int // offset just past the last retained character
}

// splitParagraphs breaks text on blank-line boundaries, keeping each
// paragraph's character offsets within the original text.
func splitParagraphs(text string) []paragraph {
	var paras []paragraph
	pos := 0
	for _, seg := range blankLineRe.Split(text, -1) {
		segStart := strings.Index(text[pos:], seg)
		if segStart < 0 {
			// Split segments always occur in order; this is unreachable but
			// cheap to tolerate.
			continue
		}
		segStart += pos
		pos = segStart + len(seg)

		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			continue
		}
		lead := strings.Index(seg, trimmed)
		paras = append(paras, paragraph{
			text:  trimmed,
			start: segStart + lead,
			end:   segStart + lead + len(trimmed),
		})
	}
	return paras
}

// overlapTail returns the trailing n characters of text, clamped to a rune
// boundary so multi-byte characters are never split.
func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return ""
	}
	cut := len(text) - n
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return text[cut:]
}
