// Package progress provides the console progress bar for batch runs
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Bar represents a single-line progress bar counting completed work items
type Bar interface {
	// Increment marks one more item complete
	Increment()

	// SetMessage sets the text shown after the bar
	SetMessage(message string)

	// Finish renders the final state and moves to the next line
	Finish()
}

// Config holds configuration for the progress bar
type Config struct {
	Writer   io.Writer // Where to write output (default: os.Stdout)
	Width    int       // Width of the bar in characters
	Disabled bool      // Suppress all output
}

// barImpl implements the Bar interface
type barImpl struct {
	config   Config
	current  int64
	total    int64
	message  string
	finished bool
	mutex    sync.Mutex
}

// NewBar creates a progress bar expecting total items
func NewBar(total int64, config Config) Bar {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.Width <= 0 {
		config.Width = 40
	}

	return &barImpl{
		config: config,
		total:  total,
	}
}

// Increment marks one more item complete
func (pb *barImpl) Increment() {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()

	if pb.finished {
		return
	}
	pb.current++
	pb.display()
}

// SetMessage sets the text shown after the bar
func (pb *barImpl) SetMessage(message string) {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()

	if pb.finished {
		return
	}
	pb.message = message
	pb.display()
}

// Finish completes the progress bar and shows the final state
func (pb *barImpl) Finish() {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()

	if pb.finished {
		return
	}
	pb.finished = true
	pb.current = pb.total
	pb.display()

	if !pb.config.Disabled {
		fmt.Fprint(pb.config.Writer, "\n")
	}
}

// display renders the bar onto the current line
func (pb *barImpl) display() {
	if pb.config.Disabled {
		return
	}

	var percent float64
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total) * 100
		if percent > 100 {
			percent = 100
		}
	}

	filled := 0
	if pb.total > 0 {
		filled = int(float64(pb.config.Width) * float64(pb.current) / float64(pb.total))
		if filled > pb.config.Width {
			filled = pb.config.Width
		}
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", pb.config.Width-filled)
	line := fmt.Sprintf("\r[%s] %3.0f%% | %d/%d", bar, percent, pb.current, pb.total)
	if pb.message != "" {
		line += " | " + pb.message
	}

	// Pad over leftovers from a longer previous line
	fmt.Fprintf(pb.config.Writer, "%-100s", line)
}
