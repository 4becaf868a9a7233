package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"hyperleaf/app"
	"hyperleaf/domain/report"

	"github.com/gin-gonic/gin"
)

// PrintRenderer renders the fixed-width print document that export
// rasterizes. The live report page embeds the same partial off-screen.
type PrintRenderer struct {
	templates *template.Template
}

var _ app.PrintRenderer = (*PrintRenderer)(nil)

// NewPrintRenderer parses the embedded templates for standalone use
func NewPrintRenderer(assetHost string) (*PrintRenderer, error) {
	t, err := parseTemplates(assetHost)
	if err != nil {
		return nil, err
	}
	return &PrintRenderer{templates: t}, nil
}

// RenderPrint returns a complete HTML document holding app.PrintNodeID
func (p *PrintRenderer) RenderPrint(view report.View) (string, error) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, "print.html", printData(view)); err != nil {
		return "", fmt.Errorf("render print document: %w", err)
	}
	return buf.String(), nil
}

func printData(view report.View) gin.H {
	return gin.H{"View": view, "NodeID": app.PrintNodeID}
}

// attachmentSink writes a delivered document straight into the response
type attachmentSink struct {
	c         *gin.Context
	delivered bool
}

func (s *attachmentSink) Deliver(fileName, contentType string, body []byte) error {
	if s.delivered {
		return fmt.Errorf("document already delivered")
	}
	s.delivered = true
	s.c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(fileName))
	s.c.Data(http.StatusOK, contentType, body)
	return nil
}
