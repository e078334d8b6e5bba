package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractContent recovers the text a non-rendering crawler would see and flags
// empty client-side app shells. The document is not modified.
func ExtractContent(doc *goquery.Document, rules Rules) ContentResult {
	excluded := make(map[string]struct{}, len(rules.ExcludedTags))
	for _, tag := range rules.ExcludedTags {
		excluded[strings.ToLower(tag)] = struct{}{}
	}

	isSPAEmpty := detectSPAShell(doc, rules, excluded)

	var parts []string
	for _, n := range doc.Nodes {
		collectVisibleText(n, excluded, &parts)
	}
	text := collapseWhitespace(strings.Join(parts, " "))
	wordCount := countWords(text)

	return ContentResult{
		Text:       text,
		WordCount:  wordCount,
		IsSPAEmpty: isSPAEmpty,
		HasContent: wordCount > rules.HasContentWords,
	}
}

// detectSPAShell reports whether any marker container is sparse enough to be
// an unrendered mount point. Populated containers that reuse a marker id are
// not shells.
func detectSPAShell(doc *goquery.Document, rules Rules, excluded map[string]struct{}) bool {
	for _, marker := range rules.SPAMarkers {
		found := false
		doc.Find(marker.Tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if marker.ID != "" {
				if id, _ := s.Attr("id"); id != marker.ID {
					return true
				}
			}
			if utf8.RuneCountInString(strippedText(s, excluded)) < rules.SPAMaxTextLength &&
				s.Children().Length() <= rules.SPAMaxChildren {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// strippedText concatenates the trimmed visible text under a selection.
// Excluded descendants such as inline scripts do not count.
func strippedText(s *goquery.Selection, excluded map[string]struct{}) string {
	var parts []string
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectVisibleText(c, excluded, &parts)
		}
	}
	return strings.Join(parts, "")
}

func collectVisibleText(n *html.Node, excluded map[string]struct{}, parts *[]string) {
	switch n.Type {
	case html.ElementNode:
		if _, skip := excluded[n.Data]; skip {
			return
		}
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectVisibleText(c, excluded, parts)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// Preview returns the first limit runes of text, with an ellipsis appended
// when the text was cut.
func Preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
