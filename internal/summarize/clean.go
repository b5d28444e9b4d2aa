package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Text conditioning before prompting: rendered section text drags along
// pagination artifacts (reference markers, running chapter headers, page
// numbers) that waste context budget and confuse summaries.

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	referenceRe  = regexp.MustCompile(`\[\d+\]`)
	chapterRe    = regexp.MustCompile(`\b(Chapter|CHAPTER)\s+\d+\b`)
	pageNumRe    = regexp.MustCompile(`\bPage\s+\d+\b`)
	ellipsisRe   = regexp.MustCompile(`\.{3,}`)
	dashRunRe    = regexp.MustCompile(`-{2,}`)
)

// minFragmentChars drops sentence fragments shorter than this after
// cleaning; they are nearly always extraction artifacts.
const minFragmentChars = 10

// Clean normalizes text for summarization: collapses whitespace, strips
// common pagination artifacts, normalizes ellipses and dash runs, and drops
// very short sentence fragments.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	text = referenceRe.ReplaceAllString(text, "")
	text = chapterRe.ReplaceAllString(text, "")
	text = pageNumRe.ReplaceAllString(text, "")
	text = ellipsisRe.ReplaceAllString(text, "...")
	text = dashRunRe.ReplaceAllString(text, "--")

	sentences := strings.Split(text, ". ")
	kept := sentences[:0]
	for _, s := range sentences {
		if len(strings.TrimSpace(s)) > minFragmentChars {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ". ")
}

// EstimateTokens approximates token count at ~4 characters per token.
// Intentionally rough; exact tokenization is not required for budgeting.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// TruncateContent cleans and joins chunks, then progressively reduces the
// selection until it fits maxTokens: first the longest prefix of chunks,
// then every 2nd or 3rd chunk for broader coverage when the prefix is too
// thin, then a final character cut at a sentence boundary.
func TruncateContent(chunks []string, maxTokens int) string {
	var cleaned []string
	for _, c := range chunks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		cleaned = append(cleaned, Clean(c))
	}

	full := strings.Join(cleaned, "\n\n")
	if EstimateTokens(full) <= maxTokens {
		return full
	}

	// Longest prefix of chunks that fits.
	var accumulated string
	for _, c := range cleaned {
		test := c
		if accumulated != "" {
			test = accumulated + "\n\n" + c
		}
		if EstimateTokens(test) > maxTokens {
			break
		}
		accumulated = test
	}

	// A thin prefix trades depth for coverage: sample alternating chunks.
	if EstimateTokens(accumulated) < maxTokens*3/10 {
		accumulated = strings.Join(everyNth(cleaned, 2), "\n\n")
		if EstimateTokens(accumulated) > maxTokens {
			accumulated = strings.Join(everyNth(cleaned, 3), "\n\n")
		}
	}

	// Final safety cut, preferring a sentence boundary near the limit.
	if EstimateTokens(accumulated) > maxTokens {
		limit := maxTokens * 4
		if limit > len(accumulated) {
			limit = len(accumulated)
		}
		for limit > 0 && limit < len(accumulated) && !utf8.RuneStart(accumulated[limit]) {
			limit--
		}
		accumulated = accumulated[:limit]
		if p := strings.LastIndex(accumulated, ". "); p > limit*8/10 {
			accumulated = accumulated[:p+1]
		}
	}
	return accumulated
}

func everyNth(items []string, n int) []string {
	var out []string
	for i := 0; i < len(items); i += n {
		out = append(out, items[i])
	}
	return out
}
