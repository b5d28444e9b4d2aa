package chunk

import (
	"regexp"
	"strings"
)

// Section filtering keeps narrative content and drops structural matter
// (navigation, covers, front/back matter). The href markers are reliable;
// the content signatures are a best-effort heuristic and stay approximate:
// a short preface that name-drops chapters may be skipped.

var nonContentHrefMarkers = []string{
	"toc",
	"nav",
	"cover",
	"titlepage",
	"title-page",
	"contents",
	"copyright",
	"colophon",
	"dedication",
	"acknowledg",
	"frontmatter",
	"backmatter",
	"appendix",
	"glossary",
	"imprint",
}

var (
	chapterListingRe = regexp.MustCompile(`(?i)\bchapter\s+\d+\b`)
	boilerplateRe    = regexp.MustCompile(`(?i)all rights reserved|isbn[\s:-]|project gutenberg|printed in|first published`)
)

// metadataSignatureChars bounds how long a section can be and still be
// dismissed on content signatures alone. Long sections are always narrative.
const metadataSignatureChars = 3000

// skipSection reports whether a section should be excluded from chunking,
// with a short reason for logging.
func (b *Builder) skipSection(href, text string) (bool, string) {
	lowerHref := strings.ToLower(href)
	for _, marker := range nonContentHrefMarkers {
		if strings.Contains(lowerHref, marker) {
			return true, "href:" + marker
		}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true, "empty"
	}
	if len(trimmed) < b.cfg.MinSectionChars {
		return true, "below-min-length"
	}

	if looksLikeMetadata(trimmed) {
		return true, "metadata-signature"
	}
	return false, ""
}

// looksLikeMetadata flags short sections whose content reads like a contents
// listing or publisher boilerplate. Heuristic, not a contract.
func looksLikeMetadata(text string) bool {
	if len(text) > metadataSignatureChars {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "table of contents") && chapterListingRe.MatchString(text) {
		return true
	}
	if len(chapterListingRe.FindAllStringIndex(text, 6)) >= 5 {
		// Five or more chapter markers in a short section is a listing, not
		// prose.
		return true
	}
	return boilerplateRe.MatchString(text)
}
