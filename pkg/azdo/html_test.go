package azdo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "<p>Hello</p>", "Hello"},
		{"nested", "<div><span>Nested</span></div>", "Nested"},
		{"line break", "<br/>Line break", "Line break"},
		{"entities", "&amp;&lt;&gt;&quot;&#39;", `&<>"'`},
		{"nbsp", "word&nbsp;space", "word space"},
		{"empty", "", ""},
		{"whitespace only", "  \n ", ""},
		{"list", "<ul><li>Criteria 1</li><li>Criteria 2</li></ul>", "• Criteria 1\n• Criteria 2"},
		{"bare list items", "<li>Criteria 1</li><li>Criteria 2</li>", "• Criteria 1\n• Criteria 2"},
		{"paragraphs", "<p>One</p><p>Two</p>", "One\n\nTwo"},
		{"divs", "<div>One</div><div>Two</div>", "One\nTwo"},
		{"collapse newlines", "<p>A</p><br><br><br><p>B</p>", "A\n\nB"},
		{"inline markup", "Use <b>bold</b> and <a href=\"x\">links</a>", "Use bold and links"},
		{"comment", "a<!-- hidden -->b", "ab"},
		{"plain text", "already plain", "already plain"},
		{"bare less-than", "if a<b then", "if a<b then"},
		{"spaced comparison", "x < y and z>w", "x < y and z>w"},
		{"escaped comparison in markup", "<div>if a&lt;b then</div>", "if a<b then"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHTML(tt.in))
		})
	}
}

func TestNormalizeHTMLIsIdempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello</p><ul><li>One</li><li>Two</li></ul>",
		"<div>Line<br>break</div><p>Para</p>",
		"plain\n\ntext with • bullet",
		"<div>if a&lt;b then</div>",
		"if a<b then",
		"x < y and z>w",
		"a <= b, c<3",
	}
	for _, in := range inputs {
		once := NormalizeHTML(in)
		assert.Equal(t, once, NormalizeHTML(once), "input %q", in)
	}
}

func TestEscapeStrayLT(t *testing.T) {
	assert.Equal(t, "if a&lt;b then", escapeStrayLT("if a<b then"))
	assert.Equal(t, "<p>x &lt; y</p>", escapeStrayLT("<p>x < y</p>"))
	assert.Equal(t, "a<!-- c < d -->b", escapeStrayLT("a<!-- c < d -->b"))
	assert.Equal(t, "no markup", escapeStrayLT("no markup"))
}
