package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"math"

	"hyperleaf/domain/core"
	"hyperleaf/domain/report"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/ports"
)

// PrintNodeID is the DOM id of the fixed-width print region
const PrintNodeID = "hyperleaf-report-print"

// A4 portrait in millimetres
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// ErrExportInProgress rejects an export while another one holds the scratch region
var ErrExportInProgress = errors.New(errors.CodeExportInProgress, "an export of this report is already in progress")

// ErrExportDisabled is returned for instances opened without the export capability
var ErrExportDisabled = errors.New(errors.CodeInvalidInput, "export is not enabled for this report")

// PrintRenderer turns a print view into a standalone HTML document that
// contains the node PrintNodeID.
type PrintRenderer interface {
	RenderPrint(view report.View) (string, error)
}

// ExportConfig holds snapshot settings
type ExportConfig struct {
	Scale         float64
	Background    string
	FilePrefix    string
	ViewportWidth int
}

// DefaultExportConfig matches the on-screen report: 2x, dark background
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Scale:         2,
		Background:    "#030712",
		FilePrefix:    "HyperLeaf_Report_",
		ViewportWidth: 1024,
	}
}

// SnapshotExporter rasterizes a report's print region and hands the
// finished document to a sink exactly once.
type SnapshotExporter struct {
	renderer   PrintRenderer
	rasterizer ports.Rasterizer
	writer     ports.DocumentWriter
	clock      core.Clock
	config     ExportConfig
	logger     *internal.Logger
}

// NewSnapshotExporter creates an exporter
func NewSnapshotExporter(renderer PrintRenderer, rasterizer ports.Rasterizer, writer ports.DocumentWriter, clock core.Clock, config ExportConfig, logger *internal.Logger) *SnapshotExporter {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Scale <= 0 {
		config.Scale = DefaultExportConfig().Scale
	}
	if config.FilePrefix == "" {
		config.FilePrefix = DefaultExportConfig().FilePrefix
	}
	return &SnapshotExporter{
		renderer:   renderer,
		rasterizer: rasterizer,
		writer:     writer,
		clock:      clock,
		config:     config,
		logger:     logger,
	}
}

// Export snapshots inst and delivers one file to sink. When the print node
// is absent nothing is delivered and nil is returned.
func (e *SnapshotExporter) Export(ctx context.Context, inst *ReportInstance, tr report.Translator, sink ports.DownloadSink) error {
	if !inst.ExportEnabled {
		return ErrExportDisabled
	}
	if !inst.tryAcquireScratch() {
		return ErrExportInProgress
	}
	defer inst.releaseScratch()

	html, err := e.renderer.RenderPrint(inst.PrintView(tr))
	if err != nil {
		return errors.ExportFailed(errors.Wrap(err, "render print view"))
	}

	bmp, err := e.rasterizer.Rasterize(ctx, ports.RasterRequest{
		HTML:          html,
		NodeID:        PrintNodeID,
		Scale:         e.config.Scale,
		Background:    e.config.Background,
		ViewportWidth: e.config.ViewportWidth,
	})
	if stderrors.Is(err, ports.ErrNodeNotFound) {
		e.logger.Warn("[export] print node %q missing for report %s, nothing exported", PrintNodeID, inst.ID)
		return nil
	}
	if err != nil {
		return errors.ExportFailed(errors.Wrap(err, "rasterize report"))
	}

	layout := ComputeLayout(bmp.Width, bmp.Height, e.config.Background)
	layout.Title = inst.Result.DisplayName()

	var buf bytes.Buffer
	if err := e.writer.Write(&buf, layout, bmp); err != nil {
		return errors.ExportFailed(errors.Wrap(err, "write document"))
	}

	name := ExportFileName(e.config.FilePrefix, e.clock)
	if err := sink.Deliver(name, e.writer.ContentType(), buf.Bytes()); err != nil {
		return errors.ExportFailed(errors.Wrap(err, "deliver document"))
	}

	e.logger.Info("[export] report %s exported as %s (%d pages, %d bytes)", inst.ID, name, layout.Pages, buf.Len())
	return nil
}

// ComputeLayout fits the bitmap to the A4 width and keeps its aspect
// ratio. Taller images continue over as many pages as needed.
func ComputeLayout(bitmapW, bitmapH int, background string) ports.DocumentLayout {
	layout := ports.DocumentLayout{
		PageWidthMM:  PageWidthMM,
		PageHeightMM: PageHeightMM,
		ImageWidthMM: PageWidthMM,
		Pages:        1,
		Background:   background,
	}
	if bitmapW <= 0 || bitmapH <= 0 {
		return layout
	}
	layout.ImageHeightMM = float64(bitmapH) * PageWidthMM / float64(bitmapW)
	if pages := int(math.Ceil(layout.ImageHeightMM/PageHeightMM - 1e-9)); pages > 1 {
		layout.Pages = pages
	}
	return layout
}

// ExportFileName is prefix + the clock's local date + ".pdf"
func ExportFileName(prefix string, clock core.Clock) string {
	return prefix + core.DateStamp(clock.Now()) + ".pdf"
}
