package browser

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"
	"time"

	"hyperleaf/internal"
	"hyperleaf/ports"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls how Chrome is found and driven
type Config struct {
	Bin         string
	DebuggerURL string
	Headless    bool
	Timeout     time.Duration
	StableFor   time.Duration
}

// DefaultConfig launches a local headless Chrome
func DefaultConfig() Config {
	return Config{
		Headless:  true,
		Timeout:   30 * time.Second,
		StableFor: 300 * time.Millisecond,
	}
}

// Rasterizer screenshots one DOM node of an HTML document in headless
// Chrome. The browser is started on first use and reused.
type Rasterizer struct {
	cfg    Config
	logger *internal.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

var _ ports.Rasterizer = (*Rasterizer)(nil)

// NewRasterizer creates a rasterizer; Chrome is not started until needed
func NewRasterizer(cfg Config, logger *internal.Logger) *Rasterizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.StableFor <= 0 {
		cfg.StableFor = DefaultConfig().StableFor
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Rasterizer{cfg: cfg, logger: logger}
}

func (r *Rasterizer) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(r.cfg.Headless)
		if r.cfg.Bin != "" {
			launch = launch.Bin(r.cfg.Bin)
		}
		u, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	// the browser outlives the request that started it
	b := rod.New().ControlURL(controlURL).Context(context.WithoutCancel(ctx))
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	r.logger.Info("[browser] connected to chrome at %s", controlURL)
	r.browser = b
	return b, nil
}

// Rasterize loads req.HTML into a fresh page and captures the node with
// id req.NodeID. A missing node yields ports.ErrNodeNotFound.
func (r *Rasterizer) Rasterize(ctx context.Context, req ports.RasterRequest) (*ports.Bitmap, error) {
	b, err := r.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		r.reset()
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(r.cfg.Timeout)

	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	width := req.ViewportWidth
	if width <= 0 {
		width = 1024
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            768,
		DeviceScaleFactor: scale,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set device metrics: %w", err)
	}

	if err := page.SetDocumentContent(req.HTML); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if err := page.WaitStable(r.cfg.StableFor); err != nil {
		r.logger.Debug("[browser] page did not settle: %v", err)
	}

	found, el, err := page.Has("#" + req.NodeID)
	if err != nil {
		return nil, fmt.Errorf("query node %s: %w", req.NodeID, err)
	}
	if !found {
		return nil, ports.ErrNodeNotFound
	}

	if req.Background != "" {
		if _, err := el.Eval(`function(bg) { this.style.backgroundColor = bg }`, req.Background); err != nil {
			return nil, fmt.Errorf("paint background: %w", err)
		}
	}

	shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot node: %w", err)
	}

	return DecodeBitmap(shot)
}

// DecodeBitmap reads the pixel size of a PNG
func DecodeBitmap(data []byte) (*ports.Bitmap, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("empty bitmap %dx%d", cfg.Width, cfg.Height)
	}
	return &ports.Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

func (r *Rasterizer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		_ = r.browser.Close()
		r.browser = nil
	}
}

// Close shuts Chrome down if it was started
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
