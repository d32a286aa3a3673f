package proctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

type trackedSource struct {
	camera.Source
	closed int
}

func (s *trackedSource) Close() error {
	s.closed++
	return s.Source.Close()
}

type failingSource struct {
	closed bool
}

func (s *failingSource) Read(context.Context) (models.Frame, error) {
	return models.Frame{}, errors.New("corrupt frame")
}

func (s *failingSource) Close() error {
	s.closed = true
	return nil
}

func TestPipelineStreamsEveryFrame(t *testing.T) {
	det := seeing()
	c, _, _, _ := newTestController(det)
	src := &trackedSource{Source: camera.NewSynthetic(32, 24, 0, 35)}

	var got []uint64
	err := NewPipeline(testSession, c).Run(context.Background(), src, func(f models.Frame) error {
		got = append(got, f.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != 35 {
		t.Fatalf("streamed %d frames, want 35", len(got))
	}
	if det.Calls() != 3 {
		t.Fatalf("detector calls = %d, want 3", det.Calls())
	}
	if src.closed != 1 {
		t.Fatalf("source closed %d times", src.closed)
	}
}

func TestPipelineStopsWhenClientGoes(t *testing.T) {
	c, _, _, _ := newTestController(seeing())
	src := &trackedSource{Source: camera.NewSynthetic(32, 24, 0, 0)}

	n := 0
	err := NewPipeline(testSession, c).Run(context.Background(), src, func(models.Frame) error {
		n++
		if n == 5 {
			return errors.New("broken pipe")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("client disconnect is not an error: %v", err)
	}
	if n != 5 || src.closed != 1 {
		t.Fatalf("emitted=%d closed=%d", n, src.closed)
	}
}

func TestPipelineStopsOnCancel(t *testing.T) {
	c, _, _, _ := newTestController(seeing())
	src := &trackedSource{Source: camera.NewSynthetic(32, 24, 100, 0)}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := NewPipeline(testSession, c).Run(ctx, src, func(models.Frame) error { return nil }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.closed != 1 {
		t.Fatal("source not closed")
	}
}

func TestPipelineEndsOnPersistentReadFailure(t *testing.T) {
	c, _, _, _ := newTestController(seeing())
	src := &failingSource{}

	err := NewPipeline(testSession, c).Run(context.Background(), src, func(models.Frame) error {
		t.Fatal("nothing should be emitted")
		return nil
	})
	if err == nil {
		t.Fatal("expected read error")
	}
	if !src.closed {
		t.Fatal("source not closed")
	}
}
