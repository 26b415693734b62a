package youtubeapi

import (
	"testing"
	"time"
)

func TestQuotaBudgetInterval(t *testing.T) {
	b := QuotaBudget{TargetUnits: 10000, UnitsPerRequest: 5, Window: 10800 * time.Second}
	got, err := b.Interval(2*time.Second, 60*time.Second)
	if err != nil {
		t.Fatalf("Interval() error: %v", err)
	}
	// 10000/5 = 2000 allowed requests over 10800s => 5.4s
	if want := 5400 * time.Millisecond; got != want {
		t.Errorf("Interval() = %v, want %v", got, want)
	}
}

func TestQuotaBudgetIntervalClamping(t *testing.T) {
	tests := []struct {
		name   string
		budget QuotaBudget
		want   time.Duration
	}{
		{
			name:   "below min clamps up",
			budget: QuotaBudget{TargetUnits: 1000000, UnitsPerRequest: 1, Window: time.Minute},
			want:   2 * time.Second,
		},
		{
			name:   "above max clamps down",
			budget: QuotaBudget{TargetUnits: 5, UnitsPerRequest: 5, Window: time.Hour},
			want:   60 * time.Second,
		},
		{
			name:   "zero units per request treated as one",
			budget: QuotaBudget{TargetUnits: 60, UnitsPerRequest: 0, Window: 10 * time.Minute},
			want:   10 * time.Second,
		},
		{
			name:   "target below cost still allows one request",
			budget: QuotaBudget{TargetUnits: 1, UnitsPerRequest: 5, Window: 30 * time.Second},
			want:   30 * time.Second,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.budget.Interval(2*time.Second, 60*time.Second)
			if err != nil {
				t.Fatalf("Interval() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Interval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuotaBudgetIntervalInvalidWindow(t *testing.T) {
	for _, window := range []time.Duration{0, -time.Second} {
		b := QuotaBudget{TargetUnits: 10000, UnitsPerRequest: 5, Window: window}
		if _, err := b.Interval(2*time.Second, 60*time.Second); err == nil {
			t.Errorf("Interval() with window=%v: expected error", window)
		}
	}
}
