package app

import (
	"context"
	"io"
	"sync"

	"hyperleaf/domain/report"
	"hyperleaf/domain/result"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockPredictionAPI struct {
	mock.Mock
}

func (m *MockPredictionAPI) Predict(ctx context.Context, token string, req ports.PredictRequest) (result.RawResult, error) {
	args := m.Called(ctx, token, req)
	raw, _ := args.Get(0).(result.RawResult)
	return raw, args.Error(1)
}

func (m *MockPredictionAPI) History(ctx context.Context, token string, scope models.HistoryScope) ([]result.RawResult, error) {
	args := m.Called(ctx, token, scope)
	raw, _ := args.Get(0).([]result.RawResult)
	return raw, args.Error(1)
}

func (m *MockPredictionAPI) Owners(ctx context.Context, token string) ([]models.Owner, error) {
	args := m.Called(ctx, token)
	owners, _ := args.Get(0).([]models.Owner)
	return owners, args.Error(1)
}

func (m *MockPredictionAPI) Identify(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, req ports.RasterRequest) (*ports.Bitmap, error) {
	args := m.Called(ctx, req)
	bmp, _ := args.Get(0).(*ports.Bitmap)
	return bmp, args.Error(1)
}

type stubWriter struct {
	layouts []ports.DocumentLayout
	err     error
}

func (w *stubWriter) ContentType() string { return "application/pdf" }

func (w *stubWriter) Write(out io.Writer, layout ports.DocumentLayout, bmp *ports.Bitmap) error {
	if w.err != nil {
		return w.err
	}
	w.layouts = append(w.layouts, layout)
	_, err := out.Write([]byte("%PDF-stub"))
	return err
}

type download struct {
	name        string
	contentType string
	body        []byte
}

type recordingSink struct {
	mu        sync.Mutex
	downloads []download
}

func (s *recordingSink) Deliver(fileName, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, download{fileName, contentType, append([]byte(nil), body...)})
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloads)
}

type htmlRenderer struct {
	html string
	err  error
}

func (r htmlRenderer) RenderPrint(view report.View) (string, error) {
	return r.html, r.err
}

type keyTranslator struct{}

func (keyTranslator) T(key string) string { return key }
