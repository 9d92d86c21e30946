package logger

import "testing"

func TestNewParsesLevel(t *testing.T) {
	for _, production := range []bool{false, true} {
		log, err := New(" WARN ", production)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if log.Core().Enabled(-1) {
			t.Fatalf("unexpected debug enabled at warn level")
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
