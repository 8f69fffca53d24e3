package links

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Stopwords excluded from keyword extraction: common Norwegian function words
// plus a handful of English ones.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"og", "er", "det", "en", "ei", "ett", "den", "dei", "som", "til", "med",
		"for", "har", "var", "kan", "vil", "skal", "fra", "ved", "men", "seg",
		"sin", "bli", "ble", "alle", "andre", "noen", "ikke", "bare", "denne",
		"dette", "disse", "også", "etter", "over", "under", "mellom", "mot",
		"the", "and", "that", "this", "with", "from", "are", "was",
		"have", "has", "been", "will", "not", "but", "they", "their", "what",
	} {
		stopwords[w] = struct{}{}
	}
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// StripTags returns the text content of an HTML fragment. Plain text passes
// through unchanged.
func StripTags(html string) string {
	if !strings.ContainsRune(html, '<') {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// ExtractKeywords produces the significant-word set used for relevance
// scoring: markup stripped, lowercased, punctuation replaced by spaces, then
// tokens shorter than three runes or on the stopword list dropped.
// Duplicates are removed preserving first-seen order.
func ExtractKeywords(text string) []string {
	text = StripTags(text)
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, " ")

	var (
		keywords []string
		seen     = map[string]struct{}{}
	)
	for _, word := range strings.Fields(text) {
		if len([]rune(word)) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}
