package httpclient

import (
	"testing"
	"time"
)

func TestNewAppliesTimeout(t *testing.T) {
	if got := New(3 * time.Second).Timeout; got != 3*time.Second {
		t.Fatalf("unexpected timeout: got %v want %v", got, 3*time.Second)
	}
	if got := New(0).Timeout; got != defaultTimeout {
		t.Fatalf("unexpected default timeout: got %v want %v", got, defaultTimeout)
	}
}
