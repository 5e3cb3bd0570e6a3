package graph

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t\r\f]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText converts rendered page markup into plain text suitable for
// chunking. Block-level elements become paragraph breaks so the chunker's
// blank-line splitting sees the page's visual structure. Markup that fails
// to parse degrades to its raw text.
func HTMLToText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}

	var sb strings.Builder
	walkText(doc, &sb)

	text := spaceRun.ReplaceAllString(sb.String(), " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func walkText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		case atom.Br:
			sb.WriteString("\n")
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			sb.WriteString("\n\n")
			sb.WriteString(headingPrefix(n.DataAtom))
		case atom.P, atom.Div, atom.Table, atom.Ul, atom.Ol, atom.Blockquote:
			sb.WriteString("\n\n")
		case atom.Li, atom.Tr:
			sb.WriteString("\n")
		case atom.Td, atom.Th:
			sb.WriteString(" ")
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walkText(child, sb)
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.P, atom.Div, atom.Table, atom.Ul, atom.Ol, atom.Blockquote,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			sb.WriteString("\n\n")
		}
	}
}

// headingPrefix renders ATX-style markers so heading structure survives
// into the indexed text.
func headingPrefix(a atom.Atom) string {
	switch a {
	case atom.H1:
		return "# "
	case atom.H2:
		return "## "
	case atom.H3:
		return "### "
	case atom.H4:
		return "#### "
	case atom.H5:
		return "##### "
	default:
		return "###### "
	}
}
