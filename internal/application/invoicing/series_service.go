package invoicing

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
)

// SeriesService exposes read-only series operations
type SeriesService struct {
	seriesRepo invoicing.SeriesRepository
}

// NewSeriesService creates a new SeriesService
func NewSeriesService(seriesRepo invoicing.SeriesRepository) *SeriesService {
	return &SeriesService{seriesRepo: seriesRepo}
}

// PreviewNextNumber returns the number the next invoice of the series would
// get. Nothing is allocated, so a concurrent invoice may take it first.
func (s *SeriesService) PreviewNextNumber(ctx context.Context, tenantID, seriesID uuid.UUID) (*NextNumberResponse, error) {
	series, err := s.seriesRepo.FindByID(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}
	return &NextNumberResponse{
		SeriesID:   series.ID,
		Prefix:     series.Prefix,
		Current:    series.Current,
		NextNumber: series.Peek(),
	}, nil
}
