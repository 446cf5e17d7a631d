package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// PhaseSpinner shows an animated label on stderr while a slow step runs.
// It prints nothing when stderr is not a terminal.
type PhaseSpinner struct {
	out   io.Writer
	isTTY bool
	label string
}

// NewPhaseSpinner creates a new phase spinner.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
		label: label,
	}
}

// Run runs the spinner until the context is cancelled.
func (s *PhaseSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(s.out, "\r"+tag(Green)+" "+Color(Green)+"✓"+Color(Reset)+" "+s.label+"          \n")
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			fmt.Fprint(s.out, "\r"+tag(Cyan)+" "+Color(Cyan)+frame+Color(Reset)+" "+s.label+"          ")
			idx++
		}
	}
}

// Spin runs fn while a spinner labelled label is shown.
func Spin(ctx context.Context, label string, fn func() error) error {
	spinCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		NewPhaseSpinner(label).Run(spinCtx)
		close(done)
	}()

	err := fn()
	stop()
	<-done
	return err
}
