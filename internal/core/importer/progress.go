package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Update(module string, file string)
	Finish()
}

// ProgressReporter draws a progress bar while records are synced
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update advances the bar by one record
func (p *ProgressReporter) Update(module string, file string) {
	p.current++
	if p.total <= 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	barWidth := 40
	filled := barWidth * p.current / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	label := module + "/" + file
	if len(label) > 60 {
		label = label[:57] + "..."
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) | %s", bar, pct, p.current, p.total, label)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nProcessed %d session records in %s\n", p.current, elapsed.Round(time.Millisecond))
}
