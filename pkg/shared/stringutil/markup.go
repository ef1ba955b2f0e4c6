package stringutil

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagRE    = regexp.MustCompile(`<[^>]*>`)
	mdEmphasisRE = regexp.MustCompile("^([*`~_]+)(.+?)([*`~_]+)$")
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// StripMarkup removes HTML tags and markdown emphasis that models like to wrap values in.
func StripMarkup(text string) string {
	text = htmlTagRE.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.TrimSpace(text)
	return CollapseWhitespace(stripEmphasis(text))
}

// stripEmphasis removes one pair of matching emphasis markers around the whole text,
// such as **x** or _*x*_. Unbalanced markers are left alone.
func stripEmphasis(text string) string {
	match := mdEmphasisRE.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	closing := []rune(match[3])
	slices.Reverse(closing)
	if match[1] != string(closing) {
		return text
	}
	return strings.TrimSpace(match[2])
}

// CollapseWhitespace replaces every whitespace run with a single space and trims the ends.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// Truncate cuts text to at most maxChars runes. A non-positive limit disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}
