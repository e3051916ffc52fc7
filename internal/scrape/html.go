package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// selector is a descendant chain of class names, written ".a .b".
type selector []string

func parseSelector(s string) selector {
	var out selector
	for _, part := range strings.Fields(s) {
		out = append(out, strings.TrimPrefix(part, "."))
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// findAll returns every descendant of n carrying class, in document order.
// Matches are not searched for nested matches.
func findAll(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			if hasClass(ch, class) {
				out = append(out, ch)
				continue
			}
			walk(ch)
		}
	}
	walk(n)
	return out
}

// selectAll resolves sel below n.
func selectAll(n *html.Node, sel selector) []*html.Node {
	if len(sel) == 0 {
		return nil
	}
	nodes := findAll(n, sel[0])
	for _, class := range sel[1:] {
		var next []*html.Node
		for _, m := range nodes {
			next = append(next, findAll(m, class)...)
		}
		nodes = next
	}
	return nodes
}

// selectText returns the collapsed text of the first match of sel, or "".
func selectText(n *html.Node, sel selector) string {
	matches := selectAll(n, sel)
	if len(matches) == 0 {
		return ""
	}
	return textOf(matches[0])
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		case c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style"):
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
