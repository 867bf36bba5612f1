package util

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
	"github.com/schollz/progressbar/v3"
)

const (
	progressPrefixWidth = 52
	progressBarWidth    = 32
)

// ProgressLogger tracks and renders progress for object and byte counts.
type ProgressLogger struct {
	total    int
	action   string
	interval time.Duration
	out      io.Writer
	objects  atomic.Int32
	bytes    atomic.Int64
	bar      *progressbar.ProgressBar
	done     chan struct{}
	stopped  chan struct{}
}

// NewProgressLogger creates and starts a progress logger rendering to out.
// A non-positive total disables rendering but still counts.
func NewProgressLogger(
	total int,
	action string,
	interval time.Duration,
	out io.Writer,
) *ProgressLogger {
	p := &ProgressLogger{
		total:    total,
		action:   action,
		interval: interval,
		out:      out,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	p.start()
	return p
}

// UpdateBytes increments the byte counter.
func (p *ProgressLogger) UpdateBytes(delta int64) {
	if delta == 0 {
		return
	}
	p.bytes.Add(delta)
}

// UpdateObjects increments the finished object counter.
func (p *ProgressLogger) UpdateObjects(delta int32) {
	if delta == 0 {
		return
	}
	p.objects.Add(delta)
}

// Snapshot returns the current object and byte counts.
func (p *ProgressLogger) Snapshot() (int64, int64) {
	return int64(p.objects.Load()), p.bytes.Load()
}

// Stop halts rendering and waits for the render loop to exit.
func (p *ProgressLogger) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	<-p.stopped
}

func (p *ProgressLogger) start() {
	if p.total <= 0 || p.out == nil {
		close(p.stopped)
		return
	}

	p.bar = NewObjectProgressBar(p.total, p.action, p.out)

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		prevObjects := int64(p.objects.Load())
		prevBytes := p.bytes.Load()
		prevTime := time.Now()
		lastDesc := ""

		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
			}

			curObjects := int64(p.objects.Load())
			curBytes := p.bytes.Load()
			now := time.Now()
			elapsed := now.Sub(prevTime).Seconds()

			objectsDelta := max(curObjects-prevObjects, 0)
			bytesPerSec := progressRate(curBytes-prevBytes, elapsed)
			objectsPerSec := progressRate(curObjects-prevObjects, elapsed)
			desc := progressDescription(p.action, curBytes, bytesPerSec, objectsPerSec)
			if desc != lastDesc {
				p.bar.Describe(desc)
				lastDesc = desc
			}
			if objectsDelta > 0 {
				_ = p.bar.Add64(objectsDelta)
			}

			prevObjects = curObjects
			prevBytes = curBytes
			prevTime = now

			if int(curObjects) >= p.total {
				_ = p.bar.Finish()
				return
			}
		}
	}()
}

func progressRate(delta int64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(delta) / elapsedSeconds
}

// NewObjectProgressBar creates a themed progress bar for object-based work.
func NewObjectProgressBar(total int, action string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(progressDescription(action, 0, 0, 0)),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[light_magenta]━",
			SaucerHead:    "[light_magenta]╸",
			SaucerPadding: "[dark_gray]━",
			BarStart:      "",
			BarEnd:        "[reset]",
		}),
	)
}

func progressDescription(action string, bytes int64, bytesPerSec float64, objectsPerSec float64) string {
	prefix := fmt.Sprintf(
		"%s %s (%s/s, %.2f objects/s)",
		action,
		units.BytesSize(float64(bytes)),
		units.BytesSize(bytesPerSec),
		objectsPerSec,
	)
	return padOrTrim(prefix, progressPrefixWidth) + " "
}

func padOrTrim(s string, width int) string {
	if width <= 0 {
		return s
	}
	if len(s) > width {
		if width <= 3 {
			return s[:width]
		}
		return s[:width-3] + "..."
	}
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s
}
