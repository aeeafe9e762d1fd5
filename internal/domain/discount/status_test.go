package discount

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		current Status
		want    Status
	}{
		{
			name:  "window in the future",
			start: now.AddDate(0, 0, 1), end: now.AddDate(0, 0, 10),
			current: StatusUpcoming,
			want:    StatusUpcoming,
		},
		{
			name:  "window contains now",
			start: now.AddDate(0, 0, -1), end: now.AddDate(0, 0, 10),
			current: StatusUpcoming,
			want:    StatusActive,
		},
		{
			name:  "window in the past",
			start: now.AddDate(0, 0, -10), end: now.AddDate(0, 0, -1),
			current: StatusActive,
			want:    StatusExpired,
		},
		{
			name:  "starts exactly now",
			start: now, end: now.AddDate(0, 0, 10),
			current: StatusUpcoming,
			want:    StatusActive,
		},
		{
			name:  "ends exactly now",
			start: now.AddDate(0, 0, -10), end: now,
			current: StatusActive,
			want:    StatusActive,
		},
		{
			name:  "cancelled stays cancelled inside window",
			start: now.AddDate(0, 0, -1), end: now.AddDate(0, 0, 10),
			current: StatusCancelled,
			want:    StatusCancelled,
		},
		{
			name:  "cancelled stays cancelled after window",
			start: now.AddDate(0, 0, -10), end: now.AddDate(0, 0, -1),
			current: StatusCancelled,
			want:    StatusCancelled,
		},
		{
			name:  "cancelled stays cancelled before window",
			start: now.AddDate(0, 0, 1), end: now.AddDate(0, 0, 10),
			current: StatusCancelled,
			want:    StatusCancelled,
		},
		{
			name:  "active rolls back to upcoming when window moved",
			start: now.AddDate(0, 0, 5), end: now.AddDate(0, 0, 15),
			current: StatusActive,
			want:    StatusUpcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.start, tt.end, tt.current, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsActiveAt(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	base := Discount{
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 1),
		Status:    StatusActive,
	}

	t.Run("active inside window", func(t *testing.T) {
		d := base
		assert.True(t, d.IsActiveAt(now))
	})

	t.Run("stored status wins over window", func(t *testing.T) {
		// Stale stored status: window contains now but the sweep has not
		// promoted it yet.
		d := base
		d.Status = StatusUpcoming
		assert.False(t, d.IsActiveAt(now))
	})

	t.Run("window wins over stored status", func(t *testing.T) {
		d := base
		d.EndDate = now.AddDate(0, 0, -1)
		d.StartDate = now.AddDate(0, 0, -2)
		assert.False(t, d.IsActiveAt(now))
	})

	t.Run("cancelled never active", func(t *testing.T) {
		d := base
		d.Status = StatusCancelled
		assert.False(t, d.IsActiveAt(now))
	})

	t.Run("boundary instants count", func(t *testing.T) {
		d := base
		assert.True(t, d.IsActiveAt(d.StartDate))
		assert.True(t, d.IsActiveAt(d.EndDate))
	})
}
