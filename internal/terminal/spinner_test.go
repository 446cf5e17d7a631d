package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPhaseSpinner_NonTTYIsSilent(t *testing.T) {
	var buf bytes.Buffer
	s := &PhaseSpinner{out: &buf, label: "Checking ship its"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestPhaseSpinner_TTYPrintsFinalLine(t *testing.T) {
	var buf bytes.Buffer
	s := &PhaseSpinner{out: &buf, isTTY: true, label: "Submitting"}

	ctx, cancel := context.WithTimeout(context.Background(), 3*spinnerInterval/2)
	defer cancel()

	WithColorsDisabled(func() {
		s.Run(ctx)
	})

	out := buf.String()
	if !strings.HasSuffix(out, "\n") || !strings.Contains(out, "✓ Submitting") {
		t.Errorf("unexpected spinner output %q", out)
	}
}

func TestSpin_ReturnsError(t *testing.T) {
	want := errors.New("boom")
	got := Spin(context.Background(), "work", func() error {
		time.Sleep(time.Millisecond)
		return want
	})
	if !errors.Is(got, want) {
		t.Errorf("Spin() = %v, want %v", got, want)
	}
}
