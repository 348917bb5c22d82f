package service

import (
	"math"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
)

const (
	wordsPerMinute   = 200
	excerptGraphemes = 150
)

// PlainText returns the text nodes of an HTML fragment, space separated.
func PlainText(content string) string {
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func ReadTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func Excerpt(content string) string {
	text := strings.Join(strings.Fields(PlainText(content)), " ")

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for n := 0; n < excerptGraphemes && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return b.String() + "..."
}

func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
