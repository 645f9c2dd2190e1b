package spinner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Frames is the braille animation used by Spinner.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Config holds configuration options for a spinner.
type Config struct {
	Message string

	// RefreshRate defaults to 80ms.
	RefreshRate time.Duration

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// Spinner animates a single status line until stopped.
type Spinner struct {
	mu sync.Mutex

	config    Config
	tty       bool
	line      line
	active    bool
	frame     int
	startTime time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a spinner writing to stderr.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message})
}

// NewWithConfig creates a spinner with custom configuration.
func NewWithConfig(config Config) *Spinner {
	if config.RefreshRate <= 0 {
		config.RefreshRate = 80 * time.Millisecond
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	return &Spinner{
		config: config,
		tty:    resolveTTY(config.Writer, config.IsTTY),
		line:   line{w: config.Writer},
	}
}

// IsActive returns true if the spinner is running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Message
}

// Start begins the animation. Off a terminal it prints the message once.
// Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.frame = 0

	if !s.tty {
		fmt.Fprintf(s.config.Writer, "%s...\n", s.config.Message)
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	fmt.Fprint(s.config.Writer, hideCursor)
	go s.spin(s.stopCh, s.doneCh)
}

func (s *Spinner) spin(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.RefreshRate)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	char := Frames[s.frame%len(Frames)]
	s.frame++
	s.line.draw(fmt.Sprintf("%s %s %s", char, s.config.Message, formatElapsed(time.Since(s.startTime))))
}

// Update changes the message shown.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Message = message
}

// Stop halts the animation and clears the line. It blocks until the
// animation goroutine exits.
func (s *Spinner) Stop() {
	s.stop()
}

// Success stops the spinner and prints a check mark with message, or the
// spinner message when empty.
func (s *Spinner) Success(message string) {
	s.done(message, symbolSuccess, colorGreen)
}

// Fail stops the spinner and prints a cross with message.
func (s *Spinner) Fail(message string) {
	s.done(message, symbolFailure, colorRed)
}

func (s *Spinner) done(message, symbol, color string) {
	elapsed := s.stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		message = s.config.Message
	}
	finish(s.config.Writer, s.tty, symbol, color, message, elapsed)
}

// stop returns how long the spinner ran.
func (s *Spinner) stop() time.Duration {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0
	}
	s.active = false
	elapsed := time.Since(s.startTime)
	if !s.tty {
		s.mu.Unlock()
		return elapsed
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.mu.Lock()
	s.line.clear()
	fmt.Fprint(s.config.Writer, showCursor)
	s.mu.Unlock()
	return elapsed
}
