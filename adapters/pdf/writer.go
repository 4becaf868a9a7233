package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hyperleaf/ports"

	"github.com/go-pdf/fpdf"
)

const imageName = "report"

// Writer lays a bitmap onto A4 portrait pages with fpdf
type Writer struct {
	Creator string
}

var _ ports.DocumentWriter = (*Writer)(nil)

// NewWriter creates a PDF writer
func NewWriter() *Writer {
	return &Writer{Creator: "HyperLeaf"}
}

// ContentType is the MIME type of the produced document
func (w *Writer) ContentType() string {
	return "application/pdf"
}

// Write places the image at full page width. When it is taller than one
// page it continues on the next page, shifted up by one page height each time.
func (w *Writer) Write(out io.Writer, layout ports.DocumentLayout, bmp *ports.Bitmap) error {
	if bmp == nil || len(bmp.PNG) == 0 {
		return fmt.Errorf("no bitmap to write")
	}
	pages := layout.Pages
	if pages < 1 {
		pages = 1
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: layout.PageWidthMM, Ht: layout.PageHeightMM},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator(w.Creator, true)
	if layout.Title != "" {
		doc.SetTitle(layout.Title, true)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	doc.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(bmp.PNG))
	if doc.Err() {
		return fmt.Errorf("register image: %w", doc.Error())
	}

	bgR, bgG, bgB, hasBg := parseHexColor(layout.Background)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		if hasBg {
			doc.SetFillColor(bgR, bgG, bgB)
			doc.Rect(0, 0, layout.PageWidthMM, layout.PageHeightMM, "F")
		}
		y := -float64(i) * layout.PageHeightMM
		doc.ImageOptions(imageName, 0, y, layout.ImageWidthMM, layout.ImageHeightMM, false, opts, 0, "")
	}

	if err := doc.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// parseHexColor reads #rrggbb or #rgb
func parseHexColor(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
