package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/internal/storage"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// Result describes a finished export run.
type Result struct {
	Key         string
	DownloadURL string
	Count       int
}

// ExportService renders filtered measurements to a file and stages it on S3.
type ExportService interface {
	Export(ctx context.Context, format Format, filter models.MeasurementFilter) (*Result, error)
}

type exportService struct {
	s3         storage.S3Service
	repository repository.MeasurementRepository
}

func NewExportService(s3Service storage.S3Service, repo repository.MeasurementRepository) ExportService {
	return &exportService{
		s3:         s3Service,
		repository: repo,
	}
}

func (s *exportService) Export(ctx context.Context, format Format, filter models.MeasurementFilter) (*Result, error) {
	measurements, err := s.repository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list measurements for export: %w", err)
	}

	data, err := Render(format, measurements)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s.%s", uuid.New(), format)
	if err := s.s3.UploadFile(ctx, key, format.ContentType(), data); err != nil {
		return nil, fmt.Errorf("upload export file: %w", err)
	}

	url, err := s.s3.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign export download: %w", err)
	}

	log.Info().
		Str("key", key).
		Str("format", string(format)).
		Int("measurements", len(measurements)).
		Msg("export staged")

	return &Result{Key: key, DownloadURL: url, Count: len(measurements)}, nil
}
