package markup

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// selectNode supports the three simple selector forms: #id, .class and tag.
func selectNode(doc *html.Node, selector string) *html.Node {
	switch {
	case strings.HasPrefix(selector, "#"):
		id := strings.TrimPrefix(selector, "#")
		return findNode(doc, func(n *html.Node) bool {
			return attr(n, "id") == id
		})
	case strings.HasPrefix(selector, "."):
		class := strings.TrimPrefix(selector, ".")
		return findNode(doc, func(n *html.Node) bool {
			return slices.Contains(strings.Fields(attr(n, "class")), class)
		})
	default:
		return findNode(doc, func(n *html.Node) bool {
			return n.Data == selector
		})
	}
}

// findNode returns the first element in document order accepted by match.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
