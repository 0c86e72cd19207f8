// Package render turns Canvas data into the HTML fragments and text shown
// by the web UI and the CLI.
package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EscapeHTML escapes s for use as HTML text or attribute value.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// PlainText returns the text content of an HTML fragment: every text node
// in document order, entities decoded, tags dropped.
func PlainText(fragment string) string {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return fragment
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	for _, n := range nodes {
		extract(n)
	}
	return sb.String()
}

// Summary is a single-line plain-text preview of an HTML fragment, at most
// width runes long including the trailing "...". A negative width is treated as 0.
func Summary(fragment string, width int) string {
	width = max(width, 0)
	s := strings.Join(strings.Fields(PlainText(fragment)), " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= 3 {
		return string([]rune(s)[:width])
	}
	return string([]rune(s)[:width-3]) + "..."
}
