// Package logging sets up the structured logger and the human progress
// console of a sweep.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// New returns a slog logger writing format ("text" or "json") to w.
// Verbose lowers the level to debug.
func New(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

var (
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D26A"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3838")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800"))
	hitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Console prints progress lines for a person watching the run.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	plain bool
	open  bool
}

// NewConsole writes to w. Plain disables styling, which is what tests and
// piped output want.
func NewConsole(w io.Writer, plain bool) *Console {
	return &Console{w: w, plain: plain}
}

func (c *Console) render(s lipgloss.Style, text string) string {
	if c.plain {
		return text
	}
	return s.Render(text)
}

// Step starts a "→ doing something... " line, finished by Done or Fail.
func (c *Console) Step(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLine()
	fmt.Fprint(c.w, c.render(stepStyle, "→ ")+fmt.Sprintf(format, args...)+"... ")
	c.open = true
}

// Done finishes the current step.
func (c *Console) Done(format string, args ...interface{}) {
	c.finish(doneStyle, "done", format, args...)
}

// Fail finishes the current step as failed.
func (c *Console) Fail(format string, args ...interface{}) {
	c.finish(failStyle, "failed", format, args...)
}

func (c *Console) finish(s lipgloss.Style, word, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := c.render(s, word)
	if format != "" {
		line += " (" + fmt.Sprintf(format, args...) + ")"
	}
	fmt.Fprintln(c.w, line)
	c.open = false
}

// Item prints an indented detail line.
func (c *Console) Item(format string, args ...interface{}) {
	c.line(mutedStyle, "  ", format, args...)
}

// Hit prints a finding.
func (c *Console) Hit(format string, args ...interface{}) {
	c.line(hitStyle, "  ! ", format, args...)
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...interface{}) {
	c.line(warnStyle, "⚠ ", format, args...)
}

// Success prints the closing summary line.
func (c *Console) Success(format string, args ...interface{}) {
	c.line(doneStyle, "✓ ", format, args...)
}

func (c *Console) line(s lipgloss.Style, prefix, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLine()
	fmt.Fprintln(c.w, c.render(s, prefix+fmt.Sprintf(format, args...)))
}

func (c *Console) closeLine() {
	if c.open {
		fmt.Fprintln(c.w)
		c.open = false
	}
}
