package eventsource

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/fanpulse/internal/domain/model"
)

// FileSource reads a JSON feed document from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return "file"
}

// Load implements Source.
func (s *FileSource) Load(_ context.Context) ([]model.RawEvent, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceLoad, s.path, err)
	}
	defer func() { _ = f.Close() }()

	events, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceLoad, s.path, err)
	}
	return events, nil
}
