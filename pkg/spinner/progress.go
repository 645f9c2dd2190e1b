package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	barFilled = "█"
	barEmpty  = "░"
)

// ProgressConfig holds configuration options for a progress bar.
type ProgressConfig struct {
	// Total is the number of items; Report may revise it.
	Total int

	Message string

	// Width of the bar in characters. Defaults to 20.
	Width int

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// ProgressBar shows completion of a known number of items.
//
// Output format: Message [████████░░░░░░░░░░░░] 40% (8/20) (2.4s)
//
// Off a terminal a plain line is printed each time another tenth completes.
type ProgressBar struct {
	mu sync.Mutex

	config    ProgressConfig
	tty       bool
	line      line
	current   int
	active    bool
	startTime time.Time
}

// NewProgress creates a progress bar writing to stderr.
func NewProgress(total int, message string) *ProgressBar {
	return NewProgressWithConfig(ProgressConfig{Total: total, Message: message})
}

// NewProgressWithConfig creates a progress bar with custom configuration.
func NewProgressWithConfig(config ProgressConfig) *ProgressBar {
	if config.Width <= 0 {
		config.Width = 20
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	return &ProgressBar{
		config: config,
		tty:    resolveTTY(config.Writer, config.IsTTY),
		line:   line{w: config.Writer},
	}
}

// Current returns the number of completed items.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Total returns the number of items expected.
func (p *ProgressBar) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Total
}

// IsActive returns true between Start and Complete or Fail.
func (p *ProgressBar) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start shows the empty bar. Starting a running bar is a no-op.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return
	}
	p.active = true
	p.startTime = time.Now()
	p.current = 0

	if p.tty {
		fmt.Fprint(p.config.Writer, hideCursor)
		p.line.draw(p.render())
		return
	}
	fmt.Fprintln(p.config.Writer, p.render())
}

// Report sets progress to done of total. Its signature matches the
// embedding progress callback, so a bar can be passed directly. Reports
// before Start or after completion are ignored.
func (p *ProgressBar) Report(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	if total > 0 {
		p.config.Total = total
	}
	done = max(0, min(done, p.config.Total))

	before := p.tenths()
	p.current = done

	if p.tty {
		p.line.draw(p.render())
		return
	}
	if p.tenths() > before {
		fmt.Fprintln(p.config.Writer, p.render())
	}
}

// Increment advances progress by one.
func (p *ProgressBar) Increment() {
	p.Report(p.Current()+1, 0)
}

// Complete stops the bar and prints a success line.
func (p *ProgressBar) Complete(message string) {
	p.done(message, symbolSuccess, colorGreen)
}

// Fail stops the bar and prints a failure line.
func (p *ProgressBar) Fail(message string) {
	p.done(message, symbolFailure, colorRed)
}

func (p *ProgressBar) done(message, symbol, color string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if message == "" {
		message = p.config.Message + " complete"
	}
	var elapsed time.Duration
	if p.active {
		elapsed = time.Since(p.startTime)
		p.active = false
		if p.tty {
			p.line.clear()
			fmt.Fprint(p.config.Writer, showCursor)
		}
	}
	finish(p.config.Writer, p.tty, symbol, color, message, elapsed)
}

func (p *ProgressBar) tenths() int {
	if p.config.Total <= 0 {
		return 0
	}
	return p.current * 10 / p.config.Total
}

// render builds the status line. Caller must hold the mutex.
func (p *ProgressBar) render() string {
	width := p.config.Width
	filled, pct := 0, 0.0
	if p.config.Total > 0 {
		filled = min(width, p.current*width/p.config.Total)
		pct = float64(p.current) / float64(p.config.Total) * 100
	}

	var sb strings.Builder
	if p.config.Message != "" {
		sb.WriteString(p.config.Message)
		sb.WriteString(" ")
	}
	sb.WriteString("[")
	sb.WriteString(strings.Repeat(barFilled, filled))
	sb.WriteString(strings.Repeat(barEmpty, width-filled))
	sb.WriteString("]")
	fmt.Fprintf(&sb, " %.0f%% (%d/%d)", pct, p.current, p.config.Total)
	if !p.startTime.IsZero() {
		sb.WriteString(" ")
		sb.WriteString(formatElapsed(time.Since(p.startTime)))
	}
	return sb.String()
}
