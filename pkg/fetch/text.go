package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

// contentTiers lists container selectors from most to least recipe-specific.
// The first tier with any non-empty match wins.
var contentTiers = []string{
	strings.Join([]string{
		`[itemtype*="schema.org/Recipe"]`,
		".wprm-recipe-container",
		".tasty-recipes",
		".recipe",
		`[class*="recipe"]`,
	}, ", "),
	strings.Join([]string{
		"article",
		"main",
		`[class*="content"]`,
		`[class*="post"]`,
		`[class*="article"]`,
	}, ", "),
}

func mainText(doc *goquery.Document) string {
	for _, selector := range contentTiers {
		if text := containerText(doc, selector); text != "" {
			return text
		}
	}
	return stringutil.CollapseWhitespace(doc.Find("body").Text())
}

func containerText(doc *goquery.Document, selector string) string {
	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		// Nested matches are already covered by their outermost container.
		if s.ParentsFiltered(selector).Length() > 0 {
			return
		}
		if text := stringutil.CollapseWhitespace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
