package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
	"github.com/kailas-cloud/roadsafe/internal/logger"
)

// FileSource reads the corpus from a local CSV file.
type FileSource struct {
	path      string
	encodings []string
}

// NewFileSource creates a CSV file source. Empty encodings use DefaultEncodings.
func NewFileSource(path string, encodings []string) *FileSource {
	return &FileSource{path: filepath.Clean(path), encodings: encodings}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]record.Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrDataUnavailable, s.path, err)
	}
	records, enc, err := DecodeCSV(raw, s.encodings)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, s.path, err)
	}
	logger.FromContext(ctx).Debug("corpus loaded",
		zap.String("source", s.path),
		zap.String("encoding", enc),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// String names the source for logs.
func (s *FileSource) String() string { return "file:" + s.path }
