package frequency

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"geolabel/internal/domain"
)

// maxWords bounds the label length.
const maxWords = 3

// Generator labels a cluster with its most frequent words (stopwords filtered).
// It needs no network or credential.
type Generator struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

var _ domain.Generator = (*Generator)(nil)

// NewGenerator creates a frequency-based label generator.
func NewGenerator() *Generator {
	return &Generator{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this generator.
func (g *Generator) Name() string { return "frequency" }

// Generate returns up to three of the most frequent words of the sample, most
// frequent first; ties keep first-seen order. When every word is a stopword the
// first distinct raw tokens are used instead.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.GenerateResponse{}, err
	}
	freq := map[string]int{}
	var order []string
	for _, tok := range req.Tokens {
		for _, w := range g.words(tok) {
			if _, ok := g.stopwords[w]; ok {
				continue
			}
			if freq[w] == 0 {
				order = append(order, w)
			}
			freq[w]++
		}
	}
	if len(order) == 0 {
		order = g.rawTokens(req.Tokens)
	}
	if len(order) == 0 {
		return domain.GenerateResponse{}, errors.New("no words to label with")
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > maxWords {
		order = order[:maxWords]
	}
	// a Caser is stateful, so one per call
	title := cases.Title(language.Und)
	return domain.GenerateResponse{Text: title.String(strings.Join(order, " "))}, nil
}

func (g *Generator) rawTokens(tokens []string) []string {
	seen := make(map[string]struct{}, maxWords)
	var out []string
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == maxWords {
			break
		}
	}
	return out
}

func (g *Generator) words(text string) []string {
	return g.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
