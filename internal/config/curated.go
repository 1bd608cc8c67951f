package config

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Curated is the table of well-known multi-book works and their chapter
// subpages. Classification and resolution consult it before any heuristic:
// a curated hit is definitive, because these page layouts have been
// verified by hand against the wiki.
//
// Keys are normalized titles (see NormalizeTitle), so lookups tolerate
// case and whitespace differences in user input.
type Curated struct {
	works map[string][]string
}

// NewCurated builds the default curated table covering the standard
// multi-book Latin corpus. The chapter lists follow the wiki's subpage
// naming: "Work/Liber <roman>" for books, "Work/Capitulum <n>" for
// chapter-numbered prose, and "Eclogae/Ecloga <roman>" for the Eclogues.
func NewCurated() *Curated {
	c := &Curated{works: make(map[string][]string)}

	c.add("Aeneis", libri("Aeneis", 1, 12))
	c.add("Commentarii de bello Gallico", libri("Commentarii de bello Gallico", 1, 8))
	c.add("Commentarii de bello civili", libri("Commentarii de bello civili", 1, 3))
	c.add("Noctes Atticae", libri("Noctes Atticae", 1, 20))
	c.add("Metamorphoses (Ovidius)", libri("Metamorphoses (Ovidius)", 1, 15))
	c.add("Naturalis Historia", libri("Naturalis Historia", 1, 37))
	// Livy survives only in books 1-10 and 21-45.
	c.add("Ab Urbe Condita", append(libri("Ab Urbe Condita", 1, 10), libri("Ab Urbe Condita", 21, 45)...))
	// Tacitus survives in books 1-6 and 11-16.
	c.add("Annales (Tacitus)", append(libri("Annales (Tacitus)", 1, 6), libri("Annales (Tacitus)", 11, 16)...))
	c.add("Historiae (Tacitus)", libri("Historiae (Tacitus)", 1, 5))
	c.add("De rerum natura", libri("De rerum natura", 1, 6))
	c.add("Institutio oratoria", libri("Institutio oratoria", 1, 12))
	c.add("Epistulae morales", libri("Epistulae morales", 1, 20))
	c.add("De civitate Dei", libri("De civitate Dei", 1, 22))
	c.add("Confessiones", libri("Confessiones", 1, 13))
	c.add("Georgica", libri("Georgica", 1, 4))
	c.add("Eclogae", eclogae(10))
	c.add("Ars amatoria", libri("Ars amatoria", 1, 3))
	c.add("Fasti", libri("Fasti", 1, 6))
	c.add("Tristia", libri("Tristia", 1, 5))
	c.add("Epistulae ex Ponto", libri("Epistulae ex Ponto", 1, 4))
	c.add("Bellum Iugurthinum", capitula("Bellum Iugurthinum", 114))
	c.add("Bellum Catilinae", capitula("Bellum Catilinae", 61))

	return c
}

func (c *Curated) add(title string, chapters []string) {
	c.works[NormalizeTitle(title)] = chapters
}

// Override replaces or adds the chapter list for a work. Used by the
// work-list file to correct or extend the built-in table.
func (c *Curated) Override(title string, chapters []string) {
	c.add(title, chapters)
}

// Chapters returns the curated chapter list for a title, if present.
// The returned slice is a copy; callers may reorder or filter it.
func (c *Curated) Chapters(title string) ([]string, bool) {
	chapters, ok := c.works[NormalizeTitle(title)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(chapters))
	copy(out, chapters)
	return out, true
}

// IsIndex reports whether the title is in the curated table. Every
// curated work is by definition an index page.
func (c *Curated) IsIndex(title string) bool {
	_, ok := c.works[NormalizeTitle(title)]
	return ok
}

// Len returns the number of curated works.
func (c *Curated) Len() int {
	return len(c.works)
}

// NormalizeTitle canonicalizes a work title for curated-table lookups:
// underscores become spaces (MediaWiki URL form), whitespace runs
// collapse, and the result is Unicode case folded.
//
// Case folding rather than lowercasing because folding is the
// canonical caseless-matching transform and handles characters that
// lowercase asymmetrically.
func NormalizeTitle(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	// cases.Caser is stateful; build one per call rather than sharing.
	return cases.Fold().String(s)
}

// libri builds "<work>/Liber <roman>" subpage titles for books first
// through last inclusive.
func libri(work string, first, last int) []string {
	out := make([]string, 0, last-first+1)
	for n := first; n <= last; n++ {
		out = append(out, work+"/Liber "+romanNumeral(n))
	}
	return out
}

// eclogae builds the "Eclogae/Ecloga <roman>" subpage titles.
func eclogae(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, "Eclogae/Ecloga "+romanNumeral(i))
	}
	return out
}

// capitula builds "<work>/Capitulum <n>" subpage titles with arabic
// numbering, as Sallust's works are laid out on the wiki.
func capitula(work string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, work+"/Capitulum "+strconv.Itoa(i))
	}
	return out
}

// romanValues pairs arabic values with roman numeral tokens in
// descending order for greedy conversion.
var romanValues = []struct {
	value int
	token string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"},
	{1, "I"},
}

// romanNumeral converts a positive integer to its roman numeral form.
func romanNumeral(n int) string {
	var b strings.Builder
	for _, rv := range romanValues {
		for n >= rv.value {
			b.WriteString(rv.token)
			n -= rv.value
		}
	}
	return b.String()
}
