package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/complexdatacollective/pedigree/pkg/observability"
)

// recordingHooks counts the pipeline events it receives.
type recordingHooks struct {
	observability.NoopPipelineHooks
	layouts, renders int
}

func (h *recordingHooks) OnLayoutComplete(context.Context, int, time.Duration, error) { h.layouts++ }
func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders++
}

func TestSpinnerReportsPhases(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Reading pedigree...")
	s.Start()
	s.OnLayoutStart(context.Background(), 12)
	s.OnLayoutComplete(context.Background(), 3, time.Millisecond, nil)
	s.OnRenderStart(context.Background(), []string{"svg", "png"})
	s.Stop()

	out := buf.String()
	for _, want := range []string{"Reading pedigree...", "Aligning 12 individuals...", "Placed 3 generations", "Rendering svg, png..."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}
}

func TestSpinnerKeepsMessageOnFailedLayout(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Computing layout...")
	s.Start()
	s.OnLayoutComplete(context.Background(), 0, 0, errors.New("boom"))
	s.StopWithError("Layout failed")

	out := buf.String()
	if strings.Contains(out, "Placed") {
		t.Errorf("failed layout reported as placed: %q", out)
	}
	if !strings.Contains(out, "Layout failed") {
		t.Errorf("output missing error line: %q", out)
	}
}

func TestSpinnerAttachForwards(t *testing.T) {
	t.Cleanup(observability.Reset)
	rec := &recordingHooks{}
	observability.SetPipelineHooks(rec)

	s := newSpinner(context.Background(), &bytes.Buffer{}, "Rendering...")
	detach := s.attach()
	if observability.Pipeline() != observability.PipelineHooks(s) {
		t.Fatal("attach did not install the spinner")
	}
	observability.Pipeline().OnLayoutComplete(context.Background(), 2, 0, nil)
	observability.Pipeline().OnRenderComplete(context.Background(), []string{"svg"}, 0, nil)
	detach()

	if rec.layouts != 1 || rec.renders != 1 {
		t.Errorf("forwarded layouts=%d renders=%d, want 1 and 1", rec.layouts, rec.renders)
	}
	if observability.Pipeline() != observability.PipelineHooks(rec) {
		t.Error("detach did not restore the previous hooks")
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Computing layout...")
	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after cancellation")
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "never shown")
	s.Stop()
	s.Stop()
	s.Start()

	if buf.Len() != 0 {
		t.Errorf("stopped spinner drew %q", buf.String())
	}
}
