// Package title pulls structured fields out of free-form note titles.
//
// Titles follow the convention "[CHARACTER]situation。reason、reason" or
// "CHARACTER:situation。reason、reason". Full-width and half-width variants of
// the delimiters are folded before parsing. Every function is total: titles
// that do not follow the convention yield empty results.
package title

import (
	"strings"

	"golang.org/x/text/width"
)

const (
	sentenceSep = "。"
	reasonSep   = "、"
	nameSep     = ":"
)

func normalize(title string) string {
	return width.Fold.String(title)
}

// bracketed returns the name inside a leading "[...]" and the text after it.
func bracketed(s string) (name, rest string, ok bool) {
	if !strings.HasPrefix(s, "[") {
		return "", "", false
	}
	end := strings.Index(s, "]")
	if end <= 1 {
		return "", "", false
	}
	return s[1:end], s[end+1:], true
}

// Character returns the character name a title was filed under, or "".
func Character(title string) string {
	t := normalize(title)
	if name, _, ok := bracketed(t); ok {
		return strings.TrimSpace(name)
	}
	if before, _, ok := strings.Cut(t, nameSep); ok {
		return strings.TrimSpace(before)
	}
	return ""
}

// Reasons returns the comma-separated failure reasons from the second
// sentence of the title. Titles with a single sentence have no reasons.
func Reasons(title string) []string {
	sentences := strings.Split(normalize(title), sentenceSep)
	if len(sentences) < 2 {
		return []string{}
	}
	out := []string{}
	for _, r := range strings.Split(sentences[1], reasonSep) {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// MissSituation returns the description of how the play ended: the first
// sentence with the character name prefix removed.
func MissSituation(title string) string {
	first, _, _ := strings.Cut(normalize(title), sentenceSep)
	if _, after, ok := strings.Cut(first, nameSep); ok {
		return strings.TrimSpace(after)
	}
	if _, rest, ok := bracketed(first); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(first)
}
