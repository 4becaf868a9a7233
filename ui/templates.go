package ui

import (
	"bytes"
	"strings"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a page template with the given status. It renders
// into a buffer first so a template error never leaves half a page behind.
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data gin.H) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("[ui] template %s failed: %v (keys %v)", templateName, err, mapKeys(data))
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed"})
		return
	}

	content := buf.String()
	if !strings.Contains(content, "</html>") {
		s.logger.Warn("[ui] template %s rendered without </html> (%d bytes)", templateName, len(content))
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.Debug("[ui] writing %s response: %v", templateName, err)
	}
}

func mapKeys(m gin.H) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
