package web

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// notesRenderer turns the markdown a doctor writes into their notes into
// HTML. WithUnsafe is not set, so raw HTML in the input never reaches the
// page.
var notesRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderNotes(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := notesRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
