package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register

	if PollCycles == nil {
		t.Error("PollCycles counter not initialized")
	}
	if FetchDuration == nil {
		t.Error("FetchDuration histogram not initialized")
	}
	if SleepSeconds == nil || QuotaIntervalSeconds == nil {
		t.Error("gauges not initialized")
	}
}

func TestTimeFunc(t *testing.T) {
	Init()
	d := TimeFunc(FetchDuration, func() { time.Sleep(10 * time.Millisecond) })
	if d < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", d)
	}
}

func TestSetWatchingLive(t *testing.T) {
	Init()
	// must not panic in either state
	SetWatchingLive(true)
	SetWatchingLive(false)
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation on empty context = %q, want empty", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation = %q, want abc-123", got)
	}
	if l := LoggerWithCorr(ctx); l == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
