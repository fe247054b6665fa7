package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/business/blockchain/app"
	"github.com/fd1az/condrouter/business/blockchain/domain"
	"github.com/fd1az/condrouter/internal/logger"
)

type stubClock struct {
	now time.Time
	err error
}

func (c stubClock) Now(context.Context) (time.Time, error) {
	return c.now, c.err
}

func TestClockService(t *testing.T) {
	block := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		source  domain.ClockSource
		primary app.Clock
		check   func(t *testing.T, now time.Time)
		want    domain.ClockSource
	}{
		{
			name:    "block_time",
			source:  domain.ClockBlock,
			primary: stubClock{now: block},
			check:   func(t *testing.T, now time.Time) { assert.Equal(t, block, now) },
			want:    domain.ClockBlock,
		},
		{
			name:    "falls_back_to_system",
			source:  domain.ClockBlock,
			primary: stubClock{err: errors.New("rpc down")},
			check:   func(t *testing.T, now time.Time) { assert.WithinDuration(t, time.Now(), now, time.Minute) },
			want:    domain.ClockBlock,
		},
		{
			name:    "nil_primary_is_system",
			source:  domain.ClockBlock,
			primary: nil,
			check:   func(t *testing.T, now time.Time) { assert.WithinDuration(t, time.Now(), now, time.Minute) },
			want:    domain.ClockSystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := app.NewClockService(tt.source, tt.primary, logger.NewDiscard())
			now, err := s.Now(context.Background())
			require.NoError(t, err)
			tt.check(t, now)
			assert.Equal(t, tt.want, s.Source())
		})
	}
}
