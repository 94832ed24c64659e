package cv

import (
	"image"
	"sync"

	"github.com/pkg/errors"
)

// Service pairs a frame source with the template resolver. Every lookup
// takes exactly one fresh capture; frames are never cached between calls.
type Service struct {
	capturer Capturer

	mu       sync.Mutex
	captures int
}

// NewService creates a new CV service
func NewService(capturer Capturer) *Service {
	return &Service{capturer: capturer}
}

// CaptureFrame captures the current frame
func (s *Service) CaptureFrame() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.capturer.CaptureFrame()
	if err != nil {
		return nil, errors.Wrap(err, "failed to capture frame")
	}
	if frame == nil {
		return nil, errors.Wrap(ErrNoFrame, "capturer returned nil frame")
	}

	s.captures++
	return frame, nil
}

// FindAnyTemplate captures one frame and resolves the template set against
// it. The index of the matching template is -1 on NoMatch.
func (s *Service) FindAnyTemplate(templates []Template, tolerance Tolerance) (MatchResult, int, error) {
	frame, err := s.CaptureFrame()
	if err != nil {
		return NoMatch, -1, err
	}

	result, idx := FindAny(frame, templates, tolerance)
	return result, idx, nil
}

// Captures returns how many frames have been captured through the service
func (s *Service) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// GetDimensions returns the capture dimensions
func (s *Service) GetDimensions() (width, height int) {
	return s.capturer.GetDimensions()
}
