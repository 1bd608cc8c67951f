package classify

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/model"
	"github.com/willowgs/viciharvest/internal/resolve"
)

// indexMarkers are structural signals that a page is a table of
// contents rather than prose. Each distinct marker found adds 10 to the
// confidence score.
var indexMarkers = []*regexp.Regexp{
	// Section header introducing a book or chapter.
	regexp.MustCompile(`(?m)^==+\s*(?:Liber|Book|Chapter|Capitulum)\b`),

	// Explicit INDEX marker left by some page layouts.
	regexp.MustCompile(`INDEX`),

	// Centered thumbnail, the frontispiece layout of index pages.
	regexp.MustCompile(`thumb[^\n\]]*center`),

	// Author template; work landing pages open with it, chapter
	// subpages rarely do.
	regexp.MustCompile(`\{\{[Ss]criptor\|`),
}

// markup patterns removed before counting words, so that link targets
// and template parameters don't inflate the prose estimate.
var (
	linkMarkup     = regexp.MustCompile(`\[\[[^\]]*\]\]`)
	templateMarkup = regexp.MustCompile(`\{\{[^}]*\}\}`)
	tagMarkup      = regexp.MustCompile(`<[^>]+>`)
)

// Classifier scores pages as index vs leaf.
type Classifier struct {
	curated *config.Curated
	logger  *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithLogger sets the logger for classification debug output.
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier creates a Classifier backed by the given curated table.
func NewClassifier(curated *config.Curated, opts ...ClassifierOption) *Classifier {
	c := &Classifier{curated: curated}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Classify scores a page and returns the index-vs-leaf decision.
//
// The confidence score is additive and clamped to [0, 100]:
//   - chapter link count N: N>=8 adds 40, N>=5 adds 30, N>=3 adds 20
//   - link density per 10 words: >2.0 adds 30, >1.0 adds 20
//   - each structural marker present adds 10
//   - a short page (under 200 words) with N>=3 adds 20
//
// More chapter links never lower the score; every link-derived term is
// non-decreasing in N.
func (c *Classifier) Classify(title, rawContent string, indexHint bool) model.ClassificationResult {
	if chapters, ok := c.curated.Chapters(title); ok {
		c.logger.Debug("classified from curated table", "title", title)
		return model.ClassificationResult{
			IsIndex:      true,
			Confidence:   100,
			ChapterLinks: len(chapters),
		}
	}

	if strings.TrimSpace(rawContent) == "" {
		// An empty page is never an index, hint or no hint: there is
		// nothing to resolve chapters from.
		return model.ClassificationResult{}
	}

	links := len(resolve.ExtractChapterTargets(rawContent))
	words := wordCount(rawContent)

	confidence := 0
	switch {
	case links >= 8:
		confidence += 40
	case links >= 5:
		confidence += 30
	case links >= 3:
		confidence += 20
	}

	if words > 0 {
		density := float64(links) / (float64(words) / 10.0)
		switch {
		case density > 2.0:
			confidence += 30
		case density > 1.0:
			confidence += 20
		}
	}

	for _, marker := range indexMarkers {
		if marker.MatchString(rawContent) {
			confidence += 10
		}
	}

	if words < 200 && links >= 3 {
		confidence += 20
	}

	if confidence > 100 {
		confidence = 100
	}

	result := model.ClassificationResult{
		IsIndex:      confidence >= 50 || indexHint,
		Confidence:   confidence,
		ChapterLinks: links,
		WordCount:    words,
	}

	c.logger.Debug("classified by scoring",
		"title", title,
		"is_index", result.IsIndex,
		"confidence", confidence,
		"chapter_links", links,
		"words", words,
		"hint", indexHint,
	)
	return result
}

// wordCount estimates the prose length of a page with markup removed.
func wordCount(raw string) int {
	s := linkMarkup.ReplaceAllString(raw, " ")
	s = templateMarkup.ReplaceAllString(s, " ")
	s = tagMarkup.ReplaceAllString(s, " ")
	return len(strings.Fields(s))
}
