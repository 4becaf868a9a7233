package app

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"
)

// ErrAnalysisInFlight rejects a second upload while the viewer's first is running
var ErrAnalysisInFlight = errors.New(errors.CodeAnalysisInFlight, "an analysis is already running for this viewer")

// Form validation failures, checked before any network call
var (
	ErrMissingFields = errors.ValidationError("missing fields")
	ErrMissingFile   = errors.ValidationError("missing file")
)

// AnalysisRequest is one upload as entered in the form
type AnalysisRequest struct {
	FileName       string
	File           io.Reader
	FieldArea      string
	FertilizerRate string
}

// AnalysisService validates uploads and submits them for prediction, at
// most one at a time per viewer.
type AnalysisService struct {
	api    ports.PredictionAPI
	logger *internal.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(api ports.PredictionAPI, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		api:      api,
		logger:   logger,
		inFlight: make(map[int64]struct{}),
	}
}

// Validate checks the form fields without touching the network
func (r AnalysisRequest) Validate() error {
	area := strings.TrimSpace(r.FieldArea)
	rate := strings.TrimSpace(r.FertilizerRate)
	if area == "" || rate == "" {
		return ErrMissingFields
	}
	for _, field := range [][2]string{{"field_area", area}, {"fertilizer_rate", rate}} {
		f, err := strconv.ParseFloat(field[1], 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.InvalidInput(field[0] + " must be a non-negative number")
		}
	}
	if r.File == nil || strings.TrimSpace(r.FileName) == "" {
		return ErrMissingFile
	}
	return nil
}

// Submit runs one analysis and returns the normalized result. Failures of
// the remote call come back as CodeAnalysisFailed with no partial result.
func (s *AnalysisService) Submit(ctx context.Context, viewer models.Viewer, req AnalysisRequest) (result.CanonicalResult, error) {
	if err := req.Validate(); err != nil {
		return result.CanonicalResult{}, err
	}

	if !s.begin(viewer.ID) {
		return result.CanonicalResult{}, ErrAnalysisInFlight
	}
	defer s.end(viewer.ID)

	raw, err := s.api.Predict(ctx, viewer.Token, ports.PredictRequest{
		FileName:       req.FileName,
		File:           req.File,
		FieldArea:      strings.TrimSpace(req.FieldArea),
		FertilizerRate: strings.TrimSpace(req.FertilizerRate),
	})
	if err != nil {
		s.logger.Warn("[analysis] prediction for viewer %d failed: %v", viewer.ID, err)
		return result.CanonicalResult{}, errors.AnalysisFailed(err)
	}

	res := result.Normalize(raw)
	s.logger.Debug("[analysis] viewer %d got %s (schema %s)", viewer.ID, res.DisplayName(), res.Schema)
	return res, nil
}

// Busy reports whether the viewer has an analysis running
func (s *AnalysisService) Busy(viewerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[viewerID]
	return ok
}

func (s *AnalysisService) begin(viewerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[viewerID]; ok {
		return false
	}
	s.inFlight[viewerID] = struct{}{}
	return true
}

func (s *AnalysisService) end(viewerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, viewerID)
}
