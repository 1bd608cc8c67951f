package resolve

import (
	"regexp"
	"strings"
)

// chapterLinkPatterns match chapter-shaped links in wiki markup, in
// decreasing order of specificity. Each pattern captures the link target
// in group 1. The same patterns drive both chapter extraction here and
// link counting in the classifier, so the two stages never disagree
// about what counts as a chapter link.
var chapterLinkPatterns = []*regexp.Regexp{
	// [[Target|... Liber II]] - piped link whose label names a book.
	regexp.MustCompile(`\[\[([^|\]]+)\|[^|\]]*(?:Liber|Book|Chapter|Capitulum)\s+[IVXLCDM0-9]+[^\]]*\]\]`),

	// [[Work/Liber II]] - subpage link with a book-shaped leaf.
	regexp.MustCompile(`\[\[([^|\]]+/(?:Liber|Book|Chapter|Capitulum)\s+[IVXLCDM0-9]+)\]\]`),

	// [[Target|IV]] - piped link labeled with a bare roman numeral.
	regexp.MustCompile(`\[\[([^|\]]+)\|[IVXLCDM]+\]\]`),

	// * [[Target]] - bulleted table-of-contents entry.
	regexp.MustCompile(`(?m)^\*+\s*\[\[([^|\]]+)(?:\|[^\]]*)?\]\]`),

	// [[Target|1.]] - piped link labeled with an arabic chapter number.
	regexp.MustCompile(`\[\[([^|\]]+)\|\s*[0-9]+\.?\s*\]\]`),
}

// skipPrefixes are link-target namespace prefixes that never point at
// chapter content: categories, files, templates, help pages, and
// interwiki language links. Both the English and Latin namespace names
// appear because the wiki accepts either.
var skipPrefixes = []string{
	"category:", "categoria:",
	"file:", "fasciculus:", "imago:", "image:",
	"template:", "formula:",
	"help:", "auxilium:",
	"fr:", "en:", "de:", "it:", "es:",
}

// minTargetLength filters out degenerate link targets. Anything shorter
// than three characters is a fragment or an artifact of the markup, not
// a page title.
const minTargetLength = 3

// ExtractChapterTargets applies the chapter link patterns to raw markup
// and returns the surviving targets: namespace-filtered, length-checked,
// and deduplicated preserving first-seen order.
func ExtractChapterTargets(raw string) []string {
	seen := make(map[string]struct{})
	var targets []string

	for _, pattern := range chapterLinkPatterns {
		for _, match := range pattern.FindAllStringSubmatch(raw, -1) {
			target := strings.TrimSpace(match[1])
			if !validTarget(target) {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			targets = append(targets, target)
		}
	}

	return targets
}

// validTarget reports whether a link target may point at chapter content.
func validTarget(target string) bool {
	if len(target) < minTargetLength {
		return false
	}
	lower := strings.ToLower(target)
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
