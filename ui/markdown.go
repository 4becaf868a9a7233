package ui

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var markdownPolicy = bluemonday.UGCPolicy()

// renderMarkdown turns a catalog sentence into HTML. Catalog text is
// trusted but interpolated values come from the prediction service, so the
// output is sanitized before it reaches a page.
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	out := markdown.ToHTML([]byte(md), p, r)
	return template.HTML(markdownPolicy.SanitizeBytes(out))
}
