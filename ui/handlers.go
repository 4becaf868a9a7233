package ui

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"hyperleaf/app"
	"hyperleaf/domain/core"
	"hyperleaf/domain/report"
	"hyperleaf/internal/errors"
	"hyperleaf/internal/i18n"
	"hyperleaf/models"

	"github.com/gin-gonic/gin"
)

// analyzeForm is the upload form. The file part is read separately.
type analyzeForm struct {
	FieldArea      string `form:"field_area" binding:"required"`
	FertilizerRate string `form:"fertilizer_rate" binding:"required"`
}

// statusForError maps application error codes to HTTP statuses
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeUnauthorized:
		return http.StatusForbidden
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAnalysisInFlight, errors.CodeExportInProgress, errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeAnalysisFailed, errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageKey picks the catalog message shown inline for err
func messageKey(err error) string {
	switch {
	case stderrors.Is(err, app.ErrMissingFields):
		return "error_missing_fields"
	case stderrors.Is(err, app.ErrMissingFile):
		return "error_missing_file"
	case stderrors.Is(err, app.ErrExportDisabled):
		return "export_unavailable"
	}
	switch errors.GetCode(err) {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return "error_invalid_number"
	case errors.CodeAnalysisInFlight:
		return "error_in_flight"
	case errors.CodeAnalysisFailed, errors.CodeExternalService:
		return "error_analysis_failed"
	case errors.CodeExportInProgress:
		return "error_export_busy"
	case errors.CodeExportFailed:
		return "error_export_failed"
	case errors.CodeNotFound:
		return "error_not_found"
	case errors.CodeUnauthorized:
		return "error_forbidden"
	default:
		return "error_unavailable"
	}
}

// page holds what the layout needs on every page
func (s *Server) page(c *gin.Context, loc *i18n.Localizer) gin.H {
	other := ""
	for _, lang := range s.deps.I18n.Languages() {
		if lang != loc.Lang() {
			other = lang
			break
		}
	}
	return gin.H{
		"T":         loc,
		"Lang":      loc.Lang(),
		"OtherLang": other,
		"Viewer":    viewerOf(c),
		"Path":      c.Request.URL.Path,
	}
}

func (s *Server) renderError(c *gin.Context, loc *i18n.Localizer, err error) {
	data := s.page(c, loc)
	data["Message"] = loc.T(messageKey(err))
	s.renderTemplate(c, statusForError(err), "error.html", data)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"reports": s.deps.Reports.Len(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderUpload(c, localizerOf(c), analyzeForm{}, nil)
}

func (s *Server) renderUpload(c *gin.Context, loc *i18n.Localizer, form analyzeForm, err error) {
	data := s.page(c, loc)
	data["Form"] = form
	data["Busy"] = s.deps.Analysis.Busy(viewerOf(c).ID)
	status := http.StatusOK
	if err != nil {
		status = statusForError(err)
		data["Error"] = loc.T(messageKey(err))
	}
	s.renderTemplate(c, status, "upload.html", data)
}

// handleAnalyze validates the form, runs one analysis and opens the
// report. Failures re-render the form with the entered values.
func (s *Server) handleAnalyze(c *gin.Context) {
	loc := localizerOf(c)
	viewer := viewerOf(c)

	var form analyzeForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("[ui] analyze form rejected: %v", err)
		s.renderUpload(c, loc, form, app.ErrMissingFields)
		return
	}

	req := app.AnalysisRequest{FieldArea: form.FieldArea, FertilizerRate: form.FertilizerRate}
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			s.renderUpload(c, loc, form, errors.Wrap(err, "failed to open upload"))
			return
		}
		defer f.Close()
		req.FileName = fh.Filename
		req.File = f
	}

	res, err := s.deps.Analysis.Submit(c.Request.Context(), viewer, req)
	if err != nil {
		s.renderUpload(c, loc, form, err)
		return
	}

	inst := s.deps.Reports.Open(res, viewer, s.exportEnabled())
	c.Redirect(http.StatusSeeOther, reportPath(inst.ID))
}

func (s *Server) exportEnabled() bool {
	return s.opts.ExportEnabled && s.deps.Exporter != nil
}

func reportPath(id core.ReportID) string {
	return "/reports/" + id.String()
}

func (s *Server) instance(c *gin.Context) (*app.ReportInstance, error) {
	id, err := core.ParseReportID(c.Param("id"))
	if err != nil {
		return nil, errors.NotFound("report " + c.Param("id"))
	}
	return s.deps.Reports.Get(id, viewerOf(c))
}

// handleReport shows the active tab. ?tab= selects another tab first;
// unknown names leave the selection alone.
func (s *Server) handleReport(c *gin.Context) {
	loc := localizerOf(c)
	inst, err := s.instance(c)
	if err != nil {
		s.renderError(c, loc, err)
		return
	}
	if tab := c.Query("tab"); tab != "" {
		inst.Tabs.SelectName(tab)
	}
	s.renderReport(c, loc, inst, http.StatusOK, nil)
}

func (s *Server) renderReport(c *gin.Context, loc *i18n.Localizer, inst *app.ReportInstance, status int, exportErr error) {
	view := inst.View(loc)

	data := s.page(c, loc)
	data["Report"] = inst
	data["View"] = view
	data["Print"] = printData(inst.PrintView(loc))
	data["ExportEnabled"] = inst.ExportEnabled
	switch {
	case view.Classification != nil:
		data["Chart"] = classificationChart(view.Classification, s.opts.EchartsAssetHost)
	case view.Spectral != nil:
		data["Chart"] = spectralChart(view.Spectral, s.opts.EchartsAssetHost)
	}
	if exportErr != nil {
		data["ExportError"] = loc.T(messageKey(exportErr))
	}
	s.renderTemplate(c, status, "report.html", data)
}

func (s *Server) handlePrint(c *gin.Context) {
	loc := localizerOf(c)
	inst, err := s.instance(c)
	if err != nil {
		s.renderError(c, loc, err)
		return
	}
	doc, err := s.print.RenderPrint(inst.PrintView(loc))
	if err != nil {
		s.logger.Error("[ui] print view for %s: %v", inst.ID, err)
		s.renderError(c, loc, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// handleExport streams the PDF as an attachment. When nothing was
// produced the viewer is sent back to the report.
func (s *Server) handleExport(c *gin.Context) {
	loc := localizerOf(c)
	inst, err := s.instance(c)
	if err != nil {
		s.renderError(c, loc, err)
		return
	}
	if !s.exportEnabled() {
		s.renderReport(c, loc, inst, statusForError(app.ErrExportDisabled), app.ErrExportDisabled)
		return
	}

	sink := &attachmentSink{c: c}
	if err := s.deps.Exporter.Export(c.Request.Context(), inst, loc, sink); err != nil {
		s.logger.Warn("[ui] export of %s failed: %v", inst.ID, err)
		s.renderReport(c, loc, inst, statusForError(err), err)
		return
	}
	if !sink.delivered {
		c.Redirect(http.StatusSeeOther, reportPath(inst.ID))
	}
}

// handleHistory lists past results. An explicit ?owner= re-scopes (admins
// only; empty means everyone); otherwise the current list is reused.
func (s *Server) handleHistory(c *gin.Context) {
	loc := localizerOf(c)
	viewer := viewerOf(c)
	browser := s.deps.Browsers.For(viewer)
	browser.Deselect()

	var err error
	raw, explicit := c.GetQuery("owner")
	switch {
	case !explicit:
		err = browser.Ensure(c.Request.Context(), browser.Scope())
	case !viewer.IsAdmin():
		var scope models.HistoryScope
		if scope, err = parseScope(raw); err == nil {
			if scope.IsSet() {
				err = errors.Unauthorized("Not authorized")
			} else {
				err = browser.Ensure(c.Request.Context(), models.Unscoped)
			}
		}
	default:
		var scope models.HistoryScope
		if scope, err = parseScope(raw); err != nil {
			break
		}
		if !browser.Loaded() {
			err = browser.LoadScope(c.Request.Context(), scope)
			break
		}
		err = browser.Rescope(c.Request.Context(), scope)
	}

	if errors.HasCode(err, errors.CodeUnauthorized) || errors.HasCode(err, errors.CodeInvalidInput) {
		s.renderError(c, loc, err)
		return
	}

	data := s.page(c, loc)
	data["Records"] = browser.Records()
	data["Owners"] = browser.Owners()
	data["Scope"] = browser.Scope()
	data["ScopeLabel"] = scopeLabel(loc, browser)
	status := http.StatusOK
	if err != nil {
		s.logger.Warn("[ui] history for viewer %d: %v", viewer.ID, err)
		status = statusForError(err)
		data["Error"] = loc.T(messageKey(err))
	}
	s.renderTemplate(c, status, "history.html", data)
}

// handleHistoryRecord opens one listed record as a report. A record that
// is not in the current list is looked up after a refresh.
func (s *Server) handleHistoryRecord(c *gin.Context) {
	loc := localizerOf(c)
	viewer := viewerOf(c)

	id, err := strconv.ParseInt(c.Param("recordID"), 10, 64)
	if err != nil {
		s.renderError(c, loc, errors.NotFound("record "+c.Param("recordID")))
		return
	}

	browser := s.deps.Browsers.For(viewer)
	rec, err := browser.Select(id)
	if errors.HasCode(err, errors.CodeNotFound) && !browser.Loaded() {
		if err = browser.Ensure(c.Request.Context(), browser.Scope()); err == nil {
			rec, err = browser.Select(id)
		}
	}
	if err != nil {
		s.renderError(c, loc, err)
		return
	}

	inst := s.deps.Reports.OpenRecord(rec, viewer, s.exportEnabled())
	c.Redirect(http.StatusSeeOther, reportPath(inst.ID))
}

var _ report.Translator = (*i18n.Localizer)(nil)
