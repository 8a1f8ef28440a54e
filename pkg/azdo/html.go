package azdo

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	// markup matches comments and complete tags. Any other '<' is text.
	markup = regexp.MustCompile(`<!--[\s\S]*?-->|</?[A-Za-z][^<>]*>`)
)

// NormalizeHTML converts rich-text work item fields to plain text. Line
// breaks become newlines, paragraphs end with a blank line, list items get
// a bullet, every other tag is dropped and entities are decoded. Runs of
// three or more newlines collapse to two and the result is trimmed.
func NormalizeHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayLT(s)))
	if err != nil {
		return strings.TrimSpace(s)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	renderText(root, &b)

	out := strings.ReplaceAll(b.String(), "\u00a0", " ")
	out = excessNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func renderText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			b.WriteString(node.Text())
		case "#comment", "script", "style":
		case "br":
			b.WriteString("\n")
		case "p":
			renderText(node, b)
			b.WriteString("\n\n")
		case "div":
			renderText(node, b)
			b.WriteString("\n")
		case "li":
			b.WriteString("• ")
			renderText(node, b)
			b.WriteString("\n")
		default:
			renderText(node, b)
		}
	})
}

// escapeStrayLT escapes every '<' that does not open a comment or a complete
// tag, so text such as "if a<b then" survives parsing.
func escapeStrayLT(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	last := 0
	for _, span := range markup.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:span[0]], "<", "&lt;"))
		b.WriteString(s[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))
	return b.String()
}
