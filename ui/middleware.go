package ui

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"hyperleaf/internal/errors"
	"hyperleaf/internal/i18n"
	"hyperleaf/models"

	"github.com/gin-gonic/gin"
)

const (
	tokenCookie = "hyperleaf_token"
	langCookie  = "hyperleaf_lang"

	viewerKey    = "viewer"
	localizerKey = "localizer"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery(), s.accessLog())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.logger.Error("[ui] static filesystem unavailable: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[ui] %s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// requireViewer resolves the bearer token into a viewer. The token comes
// from ?token= (remembered in a cookie), the cookie, the Authorization
// header, or the configured default, in that order.
func (s *Server) requireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token != "" {
			c.SetCookie(tokenCookie, token, 0, "/", "", false, true)
		}
		if token == "" {
			token, _ = c.Cookie(tokenCookie)
		}
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		}
		if token == "" {
			token = s.opts.DefaultToken
		}

		user, err := s.deps.API.Identify(c.Request.Context(), token)
		if err != nil {
			s.logger.Debug("[ui] identity lookup failed: %v", err)
			loc := s.deps.I18n.Localizer(s.deps.I18n.Match(c.GetHeader("Accept-Language")))
			s.renderError(c, loc, errors.WithCode(errors.CodeUnauthorized, err))
			c.Abort()
			return
		}

		c.Set(viewerKey, models.Viewer{User: *user})
		c.Next()
	}
}

// withLanguage picks the catalog from ?lang= (remembered in a cookie), the
// cookie, the viewer's preference, then Accept-Language.
func (s *Server) withLanguage() gin.HandlerFunc {
	return func(c *gin.Context) {
		explicit := c.Query("lang")
		cookie, _ := c.Cookie(langCookie)
		lang := s.deps.I18n.Match(c.GetHeader("Accept-Language"), explicit, cookie, viewerOf(c).PreferredLanguage)
		if explicit != "" && explicit == lang {
			c.SetCookie(langCookie, lang, 365*24*3600, "/", "", false, false)
		}
		c.Set(localizerKey, s.deps.I18n.Localizer(lang))
		c.Next()
	}
}

func viewerOf(c *gin.Context) models.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		return v.(models.Viewer)
	}
	return models.Viewer{}
}

func localizerOf(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get(localizerKey); ok {
		return v.(*i18n.Localizer)
	}
	return nil
}
