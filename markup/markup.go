package markup

import (
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/foomo/contentgraph-site/service/vo"
	"golang.org/x/net/html"
)

// ErrNoMatch is returned by ToMarkdown when the selector matches no element.
var ErrNoMatch = errors.New("no element matches selector")

// ToMarkdown converts rendered page content to Markdown. A non empty selector
// ("#id", ".class" or a tag name) limits the conversion to the first match.
func ToMarkdown(content, selector string) (vo.Markdown, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	node := doc
	if selector != "" {
		node = selectNode(doc, selector)
		if node == nil {
			return "", fmt.Errorf("%w '%s'", ErrNoMatch, selector)
		}
	}

	markdownBytes, err := htmltomarkdown.ConvertNode(node)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return vo.Markdown(strings.TrimSpace(string(markdownBytes))), nil
}

// Excerpt returns the visible text of content with collapsed whitespace,
// cut at a word boundary to at most maxRunes runes.
func Excerpt(content string, maxRunes int) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(visibleText(doc)), " ")
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
