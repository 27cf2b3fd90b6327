package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/complexdatacollective/pedigree/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line status on w while a pipeline runs. It is also
// a [observability.PipelineHooks] that relabels the line as the run moves
// from alignment to rendering, forwarding every event to the hooks it
// replaced.
type Spinner struct {
	w      io.Writer
	next   observability.PipelineHooks
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for clearing
	frame   int

	start   sync.Once
	stop    sync.Once
	stopped chan struct{}
}

// newSpinner returns a spinner that stops by itself when ctx is done.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		next:    observability.NoopPipelineHooks{},
		ctx:     ctx,
		cancel:  cancel,
		message: message,
		stopped: make(chan struct{}),
	}
}

// attach installs s as the pipeline hooks until the returned function is
// called.
func (s *Spinner) attach() (detach func()) {
	s.next = observability.Pipeline()
	observability.SetPipelineHooks(s)
	prev := s.next
	return func() { observability.SetPipelineHooks(prev) }
}

// Start draws the first frame and animates until Stop or cancellation.
func (s *Spinner) Start() {
	s.start.Do(func() {
		s.draw()
		go func() {
			defer close(s.stopped)
			ticker := time.NewTicker(80 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-s.ctx.Done():
					s.clearLine()
					return
				case <-ticker.C:
					s.draw()
				}
			}
		}()
	})
}

// Stop ends the animation and clears the line. It is safe to call more
// than once, and before Start.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		s.cancel()
		started := true
		s.start.Do(func() { started = false })
		if started {
			<-s.stopped
		}
		s.clearLine()
	})
}

// StopWithError stops the spinner and leaves msg in its place.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	fmt.Fprintln(s.w, markFail+" "+msg)
}

func (s *Spinner) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
	if s.ctx.Err() == nil {
		s.draw()
	}
}

func (s *Spinner) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleFrame.Render(spinnerFrames[s.frame%len(spinnerFrames)]) + " " + styleMuted.Render(s.message)
	s.frame++
	if w := lipgloss.Width(line); w > s.width {
		s.width = w
	}
	fmt.Fprintf(s.w, "\r%s", line)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

func (s *Spinner) OnLayoutStart(ctx context.Context, individuals int) {
	s.setMessage(fmt.Sprintf("Aligning %d individuals...", individuals))
	s.next.OnLayoutStart(ctx, individuals)
}

func (s *Spinner) OnLayoutComplete(ctx context.Context, levels int, d time.Duration, err error) {
	if err == nil {
		s.setMessage(fmt.Sprintf("Placed %d generations", levels))
	}
	s.next.OnLayoutComplete(ctx, levels, d, err)
}

func (s *Spinner) OnRenderStart(ctx context.Context, formats []string) {
	s.setMessage("Rendering " + strings.Join(formats, ", ") + "...")
	s.next.OnRenderStart(ctx, formats)
}

func (s *Spinner) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	s.next.OnRenderComplete(ctx, formats, d, err)
}
