package app

import (
	"context"
	"time"

	"github.com/fd1az/condrouter/business/blockchain/domain"
	"github.com/fd1az/condrouter/internal/logger"
)

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now(context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

// ClockService serves deadline time from the configured source. When the
// block clock cannot be read it falls back to the system clock and logs it.
type ClockService struct {
	source   domain.ClockSource
	primary  Clock
	fallback Clock
	logger   logger.LoggerInterface
}

// NewClockService creates a ClockService. A nil primary uses the system clock.
func NewClockService(source domain.ClockSource, primary Clock, log logger.LoggerInterface) *ClockService {
	if primary == nil {
		source, primary = domain.ClockSystem, SystemClock{}
	}
	return &ClockService{
		source:   source,
		primary:  primary,
		fallback: SystemClock{},
		logger:   log,
	}
}

// Source returns the configured clock source.
func (s *ClockService) Source() domain.ClockSource {
	return s.source
}

// Now returns the primary clock's time, or the system time if the primary fails.
func (s *ClockService) Now(ctx context.Context) (time.Time, error) {
	now, err := s.primary.Now(ctx)
	if err == nil {
		return now, nil
	}

	s.logger.Warn(ctx, "clock unavailable, using system time",
		"source", string(s.source),
		"error", err,
	)
	return s.fallback.Now(ctx)
}
