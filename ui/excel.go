package ui

import (
	"bytes"
	"net/http"
	"strconv"

	"hyperleaf/app"
	"hyperleaf/domain/core"
	"hyperleaf/internal/errors"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleHistoryExport downloads the displayed list as a spreadsheet
func (s *Server) handleHistoryExport(c *gin.Context) {
	loc := localizerOf(c)
	browser := s.deps.Browsers.For(viewerOf(c))
	if err := browser.Ensure(c.Request.Context(), browser.Scope()); err != nil {
		s.renderError(c, loc, err)
		return
	}

	var buf bytes.Buffer
	if err := app.WriteHistoryWorkbook(&buf, browser.Records(), loc); err != nil {
		s.logger.Error("[ui] history workbook: %v", err)
		s.renderError(c, loc, errors.Wrap(err, "failed to write workbook"))
		return
	}

	name := "HyperLeaf_History_" + core.DateStamp(core.SystemClock{}.Now()) + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
