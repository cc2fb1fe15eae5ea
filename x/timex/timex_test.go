package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(10); got != 100*time.Millisecond {
		t.Fatalf("10 Hz = %v", got)
	}
	if got := PeriodFromHz(0); got != time.Second {
		t.Fatalf("0 Hz = %v, want 1s fallback", got)
	}
}
