package ui

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"hyperleaf/adapters/api"
	"hyperleaf/adapters/excel"
	"hyperleaf/adapters/memory"
	"hyperleaf/adapters/pdf"
	"hyperleaf/app"
	"hyperleaf/domain/core"
	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/i18n"
	"hyperleaf/internal/upstream"
	"hyperleaf/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportDay = time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

type stubRasterizer struct {
	mu       sync.Mutex
	requests []ports.RasterRequest
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (r *stubRasterizer) Rasterize(ctx context.Context, req ports.RasterRequest) (*ports.Bitmap, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	started, release, err := r.started, r.release, r.err
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 60))); err != nil {
		return nil, err
	}
	return &ports.Bitmap{PNG: buf.Bytes(), Width: 40, Height: 60}, nil
}

type harness struct {
	handler http.Handler
	client  *api.Client
	raster  *stubRasterizer
	bundle  *i18n.Bundle
}

func newHarness(t *testing.T, exportEnabled bool) *harness {
	t.Helper()
	nop := internal.NewNopLogger()

	store := memory.NewStore()
	up := upstream.NewServer(store, store, nil, nop)
	require.NoError(t, up.Seed(context.Background()))
	ts := httptest.NewServer(up.Routes())
	t.Cleanup(ts.Close)

	cfg := api.DefaultClientConfig()
	cfg.BaseURL = ts.URL
	client, err := api.NewClient(cfg, nop)
	require.NoError(t, err)

	clock := core.NewFixedClock(exportDay)
	printer, err := NewPrintRenderer("")
	require.NoError(t, err)
	raster := &stubRasterizer{}
	exporter := app.NewSnapshotExporter(printer, raster, pdf.NewWriter(), clock, app.DefaultExportConfig(), nop)

	bundle := i18n.MustLoad()
	srv, err := NewServer(Deps{
		API:      client,
		Analysis: app.NewAnalysisService(client, nop),
		Reports:  app.NewReportRegistry(time.Hour, clock, nop),
		Exporter: exporter,
		Browsers: app.NewHistoryBrowsers(client, nop),
		I18n:     bundle,
		Logger:   nop,
	}, Options{GinMode: gin.TestMode, ExportEnabled: exportEnabled})
	require.NoError(t, err)

	return &harness{handler: srv.Handler(), client: client, raster: raster, bundle: bundle}
}

func (h *harness) do(t *testing.T, method, target, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) get(t *testing.T, target, token string) *httptest.ResponseRecorder {
	return h.do(t, http.MethodGet, target, token, nil, "")
}

func (h *harness) en(key string) string {
	return h.bundle.Localizer("en").T(key)
}

func uploadForm(t *testing.T, area, rate, image string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("field_area", area))
	require.NoError(t, form.WriteField("fertilizer_rate", rate))
	if withFile {
		part, err := form.CreateFormFile("file", "leaf.tif")
		require.NoError(t, err)
		_, err = part.Write([]byte(image))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())
	return &body, form.FormDataContentType()
}

// analyze uploads image as token and returns the report path
func (h *harness) analyze(t *testing.T, token, image string) string {
	t.Helper()
	body, ct := uploadForm(t, "2.5", "27", image, true)
	w := h.do(t, http.MethodPost, "/analyze", token, body, ct)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/reports/"), loc)
	return loc
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, true)
	w := h.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","reports":0}`, w.Body.String())
}

func TestPagesRequireIdentity(t *testing.T) {
	h := newHarness(t, true)

	w := h.get(t, "/", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), h.en("error_forbidden"))

	w = h.get(t, "/", "not-a-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIndexLanguage(t *testing.T) {
	h := newHarness(t, true)
	hi := h.bundle.Localizer("hi")

	w := h.get(t, "/", upstream.RaviToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), hi.T("analyze"), "profile preference")

	w = h.get(t, "/?lang=en", upstream.RaviToken)
	assert.Contains(t, w.Body.String(), h.en("analyze"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), langCookie+"=en")

	w = h.get(t, "/?lang=hi", upstream.AshaToken)
	assert.Contains(t, w.Body.String(), hi.T("analyze"))
}

func TestAnalyzeValidation(t *testing.T) {
	h := newHarness(t, true)

	tests := []struct {
		name     string
		area     string
		rate     string
		withFile bool
		wantKey  string
	}{
		{"missing area", "", "27", true, "error_missing_fields"},
		{"blank rate", "2", "   ", true, "error_missing_fields"},
		{"not a number", "two", "27", true, "error_invalid_number"},
		{"negative", "2", "-1", true, "error_invalid_number"},
		{"no file", "2", "27", false, "error_missing_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := uploadForm(t, tt.area, tt.rate, "bytes", tt.withFile)
			w := h.do(t, http.MethodPost, "/analyze", upstream.AshaToken, body, ct)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), h.en(tt.wantKey))
		})
	}

	records, err := h.client.History(context.Background(), upstream.AshaToken, 0)
	require.NoError(t, err)
	assert.Empty(t, records, "rejected forms never reach the service")
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	h := newHarness(t, true)
	body, ct := uploadForm(t, "2", "27", "", true)
	w := h.do(t, http.MethodPost, "/analyze", upstream.AshaToken, body, ct)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), h.en("error_analysis_failed"))
	assert.Contains(t, w.Body.String(), `value="2"`, "entered values are kept")
}

func TestReportTabs(t *testing.T) {
	h := newHarness(t, true)
	image := "kvium tiff"
	fixture := upstream.PickFixture([]byte(image))
	path := h.analyze(t, upstream.AshaToken, image)

	w := h.get(t, path, upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, fixture.Cultivar)
	assert.Contains(t, body, h.en("farming_report_title"))
	assert.Contains(t, body, `id="`+app.PrintNodeID+`"`)
	assert.Contains(t, body, `aria-current="page">`+h.en("report_tab")+`</a>`)
	assert.Contains(t, body, h.en("download_pdf"))

	w = h.get(t, path+"?tab=classification", upstream.AshaToken)
	body = w.Body.String()
	assert.Contains(t, body, `aria-current="page">`+h.en("class_tab")+`</a>`)
	assert.Contains(t, body, h.en("prob_dist_title"))
	assert.Contains(t, body, `"type":"bar"`)
	assert.Contains(t, body, `"type":"category"`)

	w = h.get(t, path+"?tab=bogus", upstream.AshaToken)
	assert.Contains(t, w.Body.String(), `aria-current="page">`+h.en("class_tab")+`</a>`, "unknown tab keeps the selection")

	w = h.get(t, path, upstream.AshaToken)
	assert.Contains(t, w.Body.String(), `aria-current="page">`+h.en("class_tab")+`</a>`, "selection survives reloads")

	w = h.get(t, path+"?tab=regression", upstream.AshaToken)
	assert.Contains(t, w.Body.String(), h.en("phys_ind_title"))
	assert.NotContains(t, w.Body.String(), `"type":"bar"`)

	w = h.get(t, path+"?tab=spectral", upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, `aria-current="page">`+h.en("spectral_tab")+`</a>`)
	assert.Contains(t, body, `"type":"line"`)
	assert.NotContains(t, body, `"type":"bar"`)
	assert.Contains(t, body, strings.NewReplacer("{bands}", strconv.Itoa(fixture.Bands)).Replace(strings.SplitN(h.en("spectral_caption"), ",", 2)[0]))
}

func TestReportOwnership(t *testing.T) {
	h := newHarness(t, true)
	path := h.analyze(t, upstream.AshaToken, "asha tiff")

	assert.Equal(t, http.StatusNotFound, h.get(t, path, upstream.RaviToken).Code)
	assert.Equal(t, http.StatusNotFound, h.get(t, "/reports/not-an-id", upstream.AshaToken).Code)
	assert.Equal(t, http.StatusNotFound, h.get(t, "/reports/"+core.NewReportID().String(), upstream.AshaToken).Code)
}

func TestPrintDocument(t *testing.T) {
	h := newHarness(t, true)
	path := h.analyze(t, upstream.AshaToken, "print tiff")

	w := h.get(t, path+"/print", upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="`+app.PrintNodeID+`"`)
	assert.Contains(t, body, h.en("prob_dist_title"))
	assert.Contains(t, body, h.en("phys_ind_title"))
	assert.Contains(t, body, "</html>")
}

func TestExportDeliversOnePDF(t *testing.T) {
	h := newHarness(t, true)
	path := h.analyze(t, upstream.AshaToken, "export tiff")

	w := h.do(t, http.MethodPost, path+"/export", upstream.AshaToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "HyperLeaf_Report_2026-03-14.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	require.Len(t, h.raster.requests, 1)
	req := h.raster.requests[0]
	assert.Equal(t, app.PrintNodeID, req.NodeID)
	assert.Equal(t, 2.0, req.Scale)
	assert.Equal(t, "#030712", req.Background)
	assert.Contains(t, req.HTML, `id="`+app.PrintNodeID+`"`)
}

func TestExportWithoutNodeRedirects(t *testing.T) {
	h := newHarness(t, true)
	h.raster.err = ports.ErrNodeNotFound
	path := h.analyze(t, upstream.AshaToken, "no node tiff")

	w := h.do(t, http.MethodPost, path+"/export", upstream.AshaToken, nil, "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, path, w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestConcurrentExportIsRejected(t *testing.T) {
	h := newHarness(t, true)
	path := h.analyze(t, upstream.AshaToken, "busy tiff")

	h.raster.started = make(chan struct{})
	h.raster.release = make(chan struct{})

	first := make(chan *httptest.ResponseRecorder)
	go func() {
		first <- h.do(t, http.MethodPost, path+"/export", upstream.AshaToken, nil, "")
	}()
	<-h.raster.started

	w := h.do(t, http.MethodPost, path+"/export", upstream.AshaToken, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), h.en("error_export_busy"))

	close(h.raster.release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
}

func TestExportDisabled(t *testing.T) {
	h := newHarness(t, false)
	path := h.analyze(t, upstream.AshaToken, "plain tiff")

	w := h.get(t, path, upstream.AshaToken)
	assert.NotContains(t, w.Body.String(), h.en("download_pdf"))

	w = h.do(t, http.MethodPost, path+"/export", upstream.AshaToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), h.en("export_unavailable"))
	assert.Empty(t, h.raster.requests)
}

func TestHistoryFarmer(t *testing.T) {
	h := newHarness(t, true)
	h.analyze(t, upstream.AshaToken, "first")
	h.analyze(t, upstream.AshaToken, "second")
	h.analyze(t, upstream.RaviToken, "third")

	w := h.get(t, "/history", upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(w.Body.String(), ">"+h.en("view_report")+"</a>"))
	assert.NotContains(t, w.Body.String(), h.en("farmers_list"))

	w = h.get(t, "/history?owner=1", upstream.AshaToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHistoryAdminRescope(t *testing.T) {
	h := newHarness(t, true)
	h.analyze(t, upstream.AshaToken, "first")
	h.analyze(t, upstream.RaviToken, "second")
	h.analyze(t, upstream.RaviToken, "third")

	asha, err := h.client.Identify(context.Background(), upstream.AshaToken)
	require.NoError(t, err)
	viewLink := ">" + h.en("view_report") + "</a>"

	w := h.get(t, "/history", upstream.AdminToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 3, strings.Count(body, viewLink))
	assert.Contains(t, body, h.en("viewing_all"))
	assert.Contains(t, body, `href="/history?owner=`+strconv.FormatInt(asha.ID, 10)+`"`)
	assert.Contains(t, body, ">ravi</a>")

	w = h.get(t, "/history?owner="+strconv.FormatInt(asha.ID, 10), upstream.AdminToken)
	body = w.Body.String()
	assert.Equal(t, 1, strings.Count(body, viewLink))
	assert.Contains(t, body, "Viewing data for: asha")

	w = h.get(t, "/history", upstream.AdminToken)
	assert.Equal(t, 1, strings.Count(w.Body.String(), viewLink), "returning keeps the scope")

	w = h.get(t, "/history?owner=", upstream.AdminToken)
	assert.Equal(t, 3, strings.Count(w.Body.String(), viewLink))

	w = h.get(t, "/history?owner=abc", upstream.AdminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryAdminOpensOnOwner(t *testing.T) {
	h := newHarness(t, true)
	h.analyze(t, upstream.AshaToken, "first")
	h.analyze(t, upstream.RaviToken, "second")

	asha, err := h.client.Identify(context.Background(), upstream.AshaToken)
	require.NoError(t, err)

	w := h.get(t, "/history?owner="+strconv.FormatInt(asha.ID, 10), upstream.AdminToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, ">"+h.en("view_report")+"</a>"))
	assert.Contains(t, body, "Viewing data for: asha")
	assert.Contains(t, body, ">ravi</a>", "owner list is loaded with the first scoped list")
}

func TestHistoryRecordOpensReport(t *testing.T) {
	h := newHarness(t, true)
	image := "history tiff"
	h.analyze(t, upstream.AshaToken, image)

	raw, err := h.client.History(context.Background(), upstream.AshaToken, 0)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	rec := result.NormalizeHistory(raw[0], 0)

	w := h.get(t, "/history/"+strconv.FormatInt(rec.ID, 10), upstream.AshaToken)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = h.get(t, w.Header().Get("Location"), upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), upstream.PickFixture([]byte(image)).Cultivar)

	assert.Equal(t, http.StatusNotFound, h.get(t, "/history/9999", upstream.AshaToken).Code)
	assert.Equal(t, http.StatusNotFound, h.get(t, "/history/abc", upstream.AshaToken).Code)
}

func TestHistoryExportWorkbook(t *testing.T) {
	h := newHarness(t, true)
	h.analyze(t, upstream.AshaToken, "one")
	h.analyze(t, upstream.AshaToken, "two")

	w := h.get(t, "/history/export.xlsx", upstream.AshaToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	rows, err := excel.Read(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, h.en("cultivar"), rows[0][3])
}
