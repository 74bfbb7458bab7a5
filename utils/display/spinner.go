package display

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Spinner shows a braille animation while the model is thinking. It stays
// silent when stdout is not a terminal, so logs and tests are clean.
type Spinner struct {
	chars   []string
	index   int
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

func NewSpinner() *Spinner {
	return &Spinner{
		chars: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		stop:  make(chan struct{}),
	}
}

func (s *Spinner) Start(message string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.stop = make(chan struct{})
		s.stopped = false
	}
	s.message = message
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fmt.Print("\033[?25l")
		for {
			select {
			case <-s.stop:
				fmt.Print("\r\033[K\033[?25h")
				return
			case <-time.After(100 * time.Millisecond):
				s.mu.Lock()
				frame := s.chars[s.index%len(s.chars)]
				s.index++
				msg := s.message
				s.mu.Unlock()
				fmt.Printf("\r%s %s", frame, msg)
			}
		}
	}()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}
