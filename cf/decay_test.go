package cf

import (
	"math"
	"testing"
	"time"
)

func TestDecay(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last time.Time
		want float64
	}{
		{
			name: "zero time means no interaction, no penalty",
			last: time.Time{},
			want: 1.0,
		},
		{
			name: "future interaction is treated as fresh",
			last: now.Add(time.Hour),
			want: 1.0,
		},
		{
			name: "one half-life halves the influence",
			last: now.AddDate(0, 0, -30),
			want: 0.5,
		},
		{
			name: "two half-lives quarter the influence",
			last: now.AddDate(0, 0, -60),
			want: 0.25,
		},
		{
			name: "ancient interaction hits the floor",
			last: now.AddDate(-2, 0, 0),
			want: MinDecay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decay(tt.last, now, DefaultHalfLifeDays)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Decay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecay_DefaultHalfLife(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -30)
	// halfLifeDays <= 0 falls back to the default
	if got := Decay(last, now, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Decay with zero half-life = %v, want 0.5", got)
	}
}

func TestAdjustScore(t *testing.T) {
	// Fresh signal gets the full boost, floored signal still gets a little.
	if got := AdjustScore(2.0, 1.0); math.Abs(got-2.6) > 1e-9 {
		t.Errorf("AdjustScore(2, 1) = %v, want 2.6", got)
	}
	if got := AdjustScore(2.0, MinDecay); math.Abs(got-2.06) > 1e-9 {
		t.Errorf("AdjustScore(2, 0.1) = %v, want 2.06", got)
	}
}
