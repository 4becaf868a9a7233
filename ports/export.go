package ports

import (
	"context"
	"errors"
	"io"
)

// ErrNodeNotFound is returned by a Rasterizer when the requested node is
// absent from the rendered document.
var ErrNodeNotFound = errors.New("export node not found")

// RasterRequest asks for one DOM node of an HTML document as a bitmap
type RasterRequest struct {
	HTML          string
	NodeID        string
	Scale         float64
	Background    string
	ViewportWidth int
}

// Bitmap is a PNG with its pixel dimensions
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// Rasterizer converts a live DOM subtree into pixels
type Rasterizer interface {
	Rasterize(ctx context.Context, req RasterRequest) (*Bitmap, error)
}

// DocumentLayout places a bitmap on fixed-size pages. The image keeps its
// aspect ratio at full page width and continues across Pages pages.
type DocumentLayout struct {
	PageWidthMM   float64
	PageHeightMM  float64
	ImageWidthMM  float64
	ImageHeightMM float64
	Pages         int
	Background    string
	Title         string
}

// DocumentWriter encodes a laid-out bitmap as a paged document
type DocumentWriter interface {
	ContentType() string
	Write(w io.Writer, layout DocumentLayout, bmp *Bitmap) error
}

// DownloadSink receives a finished file. Deliver is called at most once
// per export and only with a complete document.
type DownloadSink interface {
	Deliver(fileName, contentType string, body []byte) error
}
