// Package indicator provides the transient progress affordance shown while a
// verification is in flight.
package indicator

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// DefaultMessage is shown while a seed is being verified
const DefaultMessage = "Verifying Seed..."

// Indicator is a transient "work in progress" signal.
// Hide on a hidden indicator is a no-op.
type Indicator interface {
	Show()
	Hide()
	IsVisible() bool
}

// Factory builds a new Indicator for a single task
type Factory func() Indicator

// Console renders the indicator as a single status line on a writer
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	visible bool
}

// NewConsole creates a console indicator. An empty message uses DefaultMessage.
func NewConsole(w io.Writer, message string) *Console {
	if message == "" {
		message = DefaultMessage
	}
	return &Console{w: w, message: message}
}

// ConsoleFactory returns a Factory producing independent console indicators
func ConsoleFactory(w io.Writer, message string) Factory {
	return func() Indicator {
		return NewConsole(w, message)
	}
}

// Show writes the status line
func (c *Console) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visible {
		return
	}
	c.visible = true
	fmt.Fprint(c.w, c.message)
}

// Hide clears the status line
func (c *Console) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.visible {
		return
	}
	c.visible = false
	fmt.Fprint(c.w, "\r"+strings.Repeat(" ", len(c.message))+"\r")
}

// IsVisible reports whether the line is currently shown
func (c *Console) IsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Nop is an indicator that only tracks visibility
type Nop struct {
	mu      sync.Mutex
	visible bool
}

// Show marks the indicator visible
func (n *Nop) Show() {
	n.mu.Lock()
	n.visible = true
	n.mu.Unlock()
}

// Hide marks the indicator hidden
func (n *Nop) Hide() {
	n.mu.Lock()
	n.visible = false
	n.mu.Unlock()
}

// IsVisible reports whether Show was called more recently than Hide
func (n *Nop) IsVisible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.visible
}

// NopFactory returns a Factory producing Nop indicators
func NopFactory() Factory {
	return func() Indicator { return &Nop{} }
}
