package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pagefold/readercore/internal/chunk"
)

// Token budgets for the different prompt shapes.
const (
	soFarBudget  = 12000 // whole "content so far" context
	chunkBudget  = 15000 // a single section's text
	answerBudget = 12000 // assembled question context
)

const (
	summaryMaxTokens = 500
	chunkMaxTokens   = 400
	answerMaxTokens  = 600

	summaryTemperature = 0.7
	answerTemperature  = 0.3
)

const systemSummarize = "You are a reading assistant. " +
	"Summarize only the content provided. " +
	"Do NOT speculate about what happens next. " +
	"Only include content the author has revealed so far. " +
	"Avoid spoilers and speculation. " +
	"Focus on key plot points, character development, and important themes. " +
	"Return only plain text, without any special symbols, section numbers, headings, or formatting."

const systemSummarizeChunk = "You are a reading assistant. " +
	"Summarize the provided text section concisely. " +
	"Focus on key plot points, character development, and important events. " +
	"Keep the summary detailed enough to understand what happened, but concise. " +
	"Do NOT speculate about future events. " +
	"Return only plain text, without any special symbols, section numbers, headings, or formatting."

const systemAnswer = "You are a helpful reading assistant. " +
	"Answer the user's question based ONLY on the provided book content. " +
	"If the answer is not in the provided context, say so clearly. " +
	"Do not make up information or speculate beyond what's provided. " +
	"Be concise but thorough in your response. " +
	"If referencing specific parts of the book, mention which context section it came from."

// Pipeline drives summarization and question answering over chunk texts.
// It consumes chunks one section at a time, in spine order, and consults
// the cache before every remote call, so a failed call for one section never
// invalidates previously cached sections.
type Pipeline struct {
	llm   *Client
	cache *Cache
	log   *slog.Logger
}

func NewPipeline(llm *Client, cache *Cache, log *slog.Logger) *Pipeline {
	return &Pipeline{llm: llm, cache: cache, log: log}
}

// Cache exposes the pipeline's summary cache.
func (p *Pipeline) Cache() *Cache { return p.cache }

// SummarizeSoFar produces one summary of everything read so far, from the
// flat ordered chunk texts.
func (p *Pipeline) SummarizeSoFar(ctx context.Context, bookTitle string, chunks []string) (string, Usage, error) {
	content := TruncateContent(chunks, soFarBudget)
	if strings.TrimSpace(content) == "" {
		return "", Usage{}, fmt.Errorf("no meaningful content to summarize")
	}

	var user strings.Builder
	if bookTitle != "" {
		fmt.Fprintf(&user, "Book Title: %s\n", bookTitle)
	}
	fmt.Fprintf(&user, "Content so far:\n%s", content)

	return p.llm.Complete(ctx, []Message{
		{Role: "system", Content: systemSummarize},
		{Role: "user", Content: user.String()},
	}, summaryMaxTokens, summaryTemperature)
}

// SummarizeChunk summarizes one chunk, consulting the cache first. The
// isContinuation flag tells the model the section continues earlier parts.
func (p *Pipeline) SummarizeChunk(ctx context.Context, bookID, bookTitle string, c chunk.Chunk, isContinuation bool) (*Summary, error) {
	if cached, err := p.cache.Get(bookID, c.ID); err == nil && cached != nil {
		return cached, nil
	}

	cleaned := Clean(c.Text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("no meaningful content in chunk %s", c.ID)
	}
	if EstimateTokens(cleaned) > chunkBudget {
		cleaned = TruncateContent([]string{cleaned}, chunkBudget)
	}

	system := systemSummarizeChunk
	if isContinuation {
		system += " This section continues from previous parts of the book."
	}

	var user strings.Builder
	if bookTitle != "" {
		fmt.Fprintf(&user, "Book: %s\n", bookTitle)
	}
	fmt.Fprintf(&user, "Section ID: %s\n", c.ID)
	fmt.Fprintf(&user, "Text to summarize:\n%s", cleaned)

	text, _, err := p.llm.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user.String()},
	}, chunkMaxTokens, summaryTemperature)
	if err != nil {
		return nil, err
	}

	s := Summary{
		ChunkID:    c.ID,
		SpineIndex: c.SpineIndex,
		Href:       c.Href,
		Summary:    text,
		TokenCount: EstimateTokens(text),
	}
	if err := p.cache.Put(bookID, s); err != nil {
		p.log.Warn("summary cache write failed", "chunk", c.ID, "error", err)
	}
	return &s, nil
}

// SummarizeBook walks the chunk set in spine order, one chunk at a time,
// collecting per-chunk summaries. A remote failure on one chunk leaves a
// gap and the walk continues; cached chunks never hit the network at all.
func (p *Pipeline) SummarizeBook(ctx context.Context, set *chunk.Set, bookTitle string) ([]Summary, error) {
	var out []Summary
	failures := 0
	for i, c := range set.Chunks {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		s, err := p.SummarizeChunk(ctx, set.BookID, bookTitle, c, i > 0)
		if err != nil {
			failures++
			p.log.Warn("chunk summary failed, continuing", "chunk", c.ID, "error", err)
			continue
		}
		out = append(out, *s)
	}
	if failures > 0 {
		p.log.Info("book summarized with gaps", "book_id", set.BookID, "failed", failures)
	}
	return out, nil
}

// QA is one previous question/answer turn.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Question is a question over the chunk texts, with optional conversation
// history.
type Question struct {
	Question  string
	BookTitle string
	History   []QA
	MaxChunks int // relevant chunks to include; defaults to 5
}

// Answer is the model's reply plus diagnostics.
type Answer struct {
	Answer     string `json:"answer"`
	ChunksUsed int    `json:"chunks_used"`
	Usage      Usage  `json:"usage"`
}

// Ask answers a question using keyword-ranked chunks as context.
func (p *Pipeline) Ask(ctx context.Context, q Question, chunks []string) (Answer, error) {
	if strings.TrimSpace(q.Question) == "" {
		return Answer{}, fmt.Errorf("question must be provided")
	}
	maxChunks := q.MaxChunks
	if maxChunks <= 0 {
		maxChunks = 5
	}

	relevant := RankChunks(q.Question, chunks, maxChunks)
	if len(relevant) == 0 {
		return Answer{}, fmt.Errorf("no relevant content found for the question")
	}

	prompt := buildQuestionContext(q, relevant)
	if EstimateTokens(prompt) > answerBudget && len(relevant) > 3 {
		relevant = relevant[:3]
		prompt = buildQuestionContext(q, relevant)
	}

	text, usage, err := p.llm.Complete(ctx, []Message{
		{Role: "system", Content: systemAnswer},
		{Role: "user", Content: prompt},
	}, answerMaxTokens, answerTemperature)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Answer: text, ChunksUsed: len(relevant), Usage: usage}, nil
}

// buildQuestionContext assembles book context, cleaned relevant chunks, the
// last few conversation turns and the current question.
func buildQuestionContext(q Question, relevant []string) string {
	var parts []string
	if q.BookTitle != "" {
		parts = append(parts, "Book: "+q.BookTitle)
	}
	if len(relevant) > 0 {
		parts = append(parts, "\nRelevant content from the book:")
		for i, c := range relevant {
			cleaned := Clean(c)
			if strings.TrimSpace(cleaned) == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("\n[Context %d]\n%s", i+1, cleaned))
		}
	}
	if len(q.History) > 0 {
		parts = append(parts, "\nPrevious conversation:")
		history := q.History
		if len(history) > 3 {
			history = history[len(history)-3:]
		}
		for _, qa := range history {
			parts = append(parts, fmt.Sprintf("\nQ: %s\nA: %s", qa.Question, qa.Answer))
		}
	}
	parts = append(parts, "\nCurrent question: "+q.Question)
	return strings.Join(parts, "\n")
}
