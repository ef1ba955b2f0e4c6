package fetch

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/tidwall/gjson"
)

const minImageAltLength = 5

// primaryImage walks the image sources from most to least reliable and returns the first hit.
func primaryImage(doc *goquery.Document, html []byte, base *url.URL) string {
	candidates := []func() string{
		func() string { return openGraphImage(html) },
		func() string { return twitterCardImage(doc) },
		func() string { return recipeSchemaImage(doc) },
		func() string { return describedContentImage(doc) },
	}
	for _, candidate := range candidates {
		if found := strings.TrimSpace(candidate()); found != "" {
			return resolveURL(base, found)
		}
	}
	return ""
}

func openGraphImage(html []byte) string {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(html)); err != nil {
		return ""
	}
	for _, img := range og.Images {
		if img != nil && img.URL != "" {
			return img.URL
		}
		if img != nil && img.SecureURL != "" {
			return img.SecureURL
		}
	}
	return ""
}

func twitterCardImage(doc *goquery.Document) string {
	return doc.Find(`meta[name="twitter:image"], meta[name="twitter:image:src"], meta[property="twitter:image"]`).
		First().AttrOr("content", "")
}

func recipeSchemaImage(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if gjson.Valid(raw) {
			found = findRecipeImage(gjson.Parse(raw))
		}
		return found == ""
	})
	return found
}

// findRecipeImage looks for a Recipe node in arbitrarily nested JSON-LD, including @graph containers.
func findRecipeImage(node gjson.Result) string {
	switch {
	case node.IsArray():
		var found string
		node.ForEach(func(_, item gjson.Result) bool {
			found = findRecipeImage(item)
			return found == ""
		})
		return found
	case node.IsObject():
		// Keys starting with @ are gjson modifiers, so walk the object instead of using paths.
		var typ, image, graph gjson.Result
		node.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "@type":
				typ = value
			case "image":
				image = value
			case "@graph":
				graph = value
			}
			return true
		})
		if isRecipeType(typ) {
			if found := jsonLDImageURL(image); found != "" {
				return found
			}
		}
		if graph.Exists() {
			return findRecipeImage(graph)
		}
	}
	return ""
}

func isRecipeType(typ gjson.Result) bool {
	if typ.IsArray() {
		for _, item := range typ.Array() {
			if strings.EqualFold(item.String(), "Recipe") {
				return true
			}
		}
		return false
	}
	return strings.EqualFold(typ.String(), "Recipe")
}

func jsonLDImageURL(image gjson.Result) string {
	switch {
	case image.IsArray():
		for _, item := range image.Array() {
			if found := jsonLDImageURL(item); found != "" {
				return found
			}
		}
	case image.IsObject():
		return image.Get("url").String()
	case image.Type == gjson.String:
		return image.String()
	}
	return ""
}

func describedContentImage(doc *goquery.Document) string {
	var found string
	doc.Find("img[alt]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		if len(alt) <= minImageAltLength {
			return true
		}
		found = strings.TrimSpace(s.AttrOr("src", ""))
		return found == ""
	})
	return found
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
