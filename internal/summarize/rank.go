package summarize

import (
	"regexp"
	"sort"
	"strings"
)

// Keyword relevance ranking for question answering: cheap lexical scoring
// that picks the chunks most likely to contain the answer, then returns
// them in book order so the model reads them as the author wrote them.

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "what": true,
	"where": true, "when": true, "why": true, "how": true, "who": true,
	"which": true,
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

// Keywords extracts the content-bearing words of a question.
func Keywords(question string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(question), -1) {
		if !stopWords[w] && len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

type scoredChunk struct {
	score float64
	index int
	text  string
}

// RankChunks returns up to maxChunks texts most relevant to the question,
// in their original book order. With no usable keywords it falls back to
// the first chunks.
func RankChunks(question string, chunks []string, maxChunks int) []string {
	keywords := Keywords(question)
	if len(keywords) == 0 {
		if len(chunks) > maxChunks {
			chunks = chunks[:maxChunks]
		}
		return chunks
	}

	exact := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		exact[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}

	var scored []scoredChunk
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		lower := strings.ToLower(c)
		score := 0.0
		for j, kw := range keywords {
			// Exact word matches weigh more than substring hits.
			score += float64(len(exact[j].FindAllStringIndex(lower, -1))) * 3
			if strings.Contains(lower, kw) {
				score++
			}
		}
		// Longer chunks carry more context; cap the bonus.
		bonus := float64(len(c)) / 1000
		if bonus > 2 {
			bonus = 2
		}
		score += bonus
		scored = append(scored, scoredChunk{score: score, index: i, text: c})
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })

	// Keep scoring-positive candidates, then restore book order.
	var selected []scoredChunk
	for _, s := range scored {
		if len(selected) >= maxChunks*2 {
			break
		}
		if s.score > 0 {
			selected = append(selected, s)
		}
	}
	sort.Slice(selected, func(a, b int) bool { return selected[a].index < selected[b].index })

	var out []string
	for _, s := range selected {
		if len(out) >= maxChunks {
			break
		}
		out = append(out, s.text)
	}
	return out
}
