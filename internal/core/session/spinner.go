package session

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner shows a spinning animation with elapsed seconds while a request
// is outstanding
type Spinner struct {
	writer  io.Writer
	message string
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSpinner creates a spinner writing to stderr
func NewSpinner(message string) *Spinner {
	return NewSpinnerTo(os.Stderr, message)
}

// NewSpinnerTo creates a spinner writing to w
func NewSpinnerTo(w io.Writer, message string) *Spinner {
	return &Spinner{
		writer:  w,
		message: message,
		done:    make(chan struct{}),
	}
}

// Start begins the animation in a goroutine
func (s *Spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		started := time.Now()

		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(s.writer, "\r%s %s (%ds)", frames[i], s.message, int(time.Since(started).Seconds()))
			select {
			case <-s.done:
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
