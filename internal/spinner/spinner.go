// Package spinner draws a one-line activity indicator while a suite runs.
package spinner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval is the delay between two frames.
const Interval = 80 * time.Millisecond

// Spinner redraws its current message on w until Stop is called.
type Spinner struct {
	w    io.Writer
	mu   sync.Mutex
	msg  string
	last int // display width of the last drawn line

	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// Start begins drawing message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		msg:     message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Update replaces the message shown from the next frame on.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.msg = message
	s.mu.Unlock()
}

// Stop clears the line and waits for the drawing goroutine to exit. It is
// safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.cleared
}

func (s *Spinner) loop() {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.done:
			s.mu.Lock()
			if s.last > 0 {
				fmt.Fprintf(s.w, "\r%*s\r", s.last, "") //nolint:errcheck
			}
			s.mu.Unlock()
			close(s.cleared)
			return
		case <-ticker.C:
			s.mu.Lock()
			line := frames[i%len(frames)] + " " + s.msg
			pad := s.last - runewidth.StringWidth(line)
			if pad < 0 {
				pad = 0
			}
			fmt.Fprintf(s.w, "\r%s%*s", line, pad, "") //nolint:errcheck
			s.last = runewidth.StringWidth(line)
			s.mu.Unlock()
		}
	}
}
