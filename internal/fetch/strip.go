package fetch

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// exportBoilerplate marks lines added by the export tool around the
// actual text: footers, attribution, and source links. Matching is
// case-insensitive substring.
var exportBoilerplate = []string{
	"exported by",
	"generated by",
	"wikisource export",
	"ws-export",
	"source:",
	"https://la.wikisource.org",
	"about this digital edition",
}

// wikitext strip patterns, applied in order.
var (
	// templatePattern matches {{...}} template invocations without
	// nested braces. Applied repeatedly, it unwinds nesting from the
	// inside out.
	templatePattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)

	// categoryPattern matches category membership links in either the
	// English or Latin namespace name.
	categoryPattern = regexp.MustCompile(`(?i)\[\[(?:category|categoria):[^\]]*\]\]`)

	// pipedLinkPattern matches [[target|label]]; the label survives.
	pipedLinkPattern = regexp.MustCompile(`\[\[[^|\]]*\|([^\]]*)\]\]`)

	// bareLinkPattern matches [[target]]; the target survives.
	bareLinkPattern = regexp.MustCompile(`\[\[([^\]]*)\]\]`)

	// quotesPattern matches wiki bold/italic markers.
	quotesPattern = regexp.MustCompile(`'{2,}`)

	// blankRunPattern collapses runs of blank lines to one blank line.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)

	// spaceRunPattern collapses runs of spaces and tabs.
	spaceRunPattern = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanExport removes export-tool boilerplate lines from rendered text
// and normalizes whitespace. The text itself is left untouched.
func CleanExport(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		lower := strings.ToLower(line)
		boilerplate := false
		for _, marker := range exportBoilerplate {
			if strings.Contains(lower, marker) {
				boilerplate = true
				break
			}
		}
		if !boilerplate {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")
	out = blankRunPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// StripWikitext converts raw wiki markup to plain text: templates and
// category links are removed, link syntax is unwrapped to its visible
// label, HTML tags are dropped, and whitespace is normalized.
func StripWikitext(raw string) string {
	s := raw

	// Templates can nest ({{a|{{b}}}}); strip inner-first until stable.
	for {
		stripped := templatePattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = categoryPattern.ReplaceAllString(s, "")
	s = pipedLinkPattern.ReplaceAllString(s, "$1")
	s = bareLinkPattern.ReplaceAllString(s, "$1")
	s = quotesPattern.ReplaceAllString(s, "")
	s = stripTags(s)

	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripTags removes HTML/XML tags, keeping only text content. Wiki
// markup freely mixes tags like <poem>, <ref>, and <div> into the text;
// a tokenizer handles unclosed and nested tags that regex-based removal
// gets wrong.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// io.EOF ends the text; any other tokenizer error means
			// the remainder is unparseable and we keep what we have.
			return b.String()
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
}
