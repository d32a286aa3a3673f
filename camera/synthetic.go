package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

// Synthetic generates JPEG frames at a fixed rate without any hardware.
type Synthetic struct {
	width  int
	height int
	period time.Duration
	limit  uint64 // 0 = unlimited

	mu     sync.Mutex
	seq    uint64
	next   time.Time
	closed bool
}

// NewSynthetic creates a source of width x height frames at fps. When limit
// is non-zero the source reports io.EOF after that many frames. fps <= 0
// produces frames as fast as they are read.
func NewSynthetic(width, height, fps int, limit uint64) *Synthetic {
	var period time.Duration
	if fps > 0 {
		period = time.Second / time.Duration(fps)
	}
	return &Synthetic{width: width, height: height, period: period, limit: limit}
}

func (s *Synthetic) Read(ctx context.Context) (models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Frame{}, ErrClosed
	}
	if s.limit > 0 && s.seq >= s.limit {
		return models.Frame{}, io.EOF
	}

	if s.period > 0 {
		now := time.Now()
		if s.next.IsZero() {
			s.next = now
		}
		if wait := s.next.Sub(now); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return models.Frame{}, ctx.Err()
			case <-timer.C:
			}
		}
		s.next = s.next.Add(s.period)
	} else if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}

	s.seq++
	data, err := s.render(s.seq)
	if err != nil {
		return models.Frame{}, fmt.Errorf("render frame %d: %w", s.seq, err)
	}
	return models.Frame{
		Seq:       s.seq,
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Data:      data,
	}, nil
}

// render draws a bar that sweeps across the frame so consecutive frames differ.
func (s *Synthetic) render(seq uint64) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	barX := int(seq*8) % s.width
	for y := 0; y < s.height; y++ {
		for x := barX; x < barX+8 && x < s.width; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SyntheticOpener opens a new synthetic source for every session.
func SyntheticOpener(width, height, fps int) Opener {
	return func(context.Context, models.SessionContext) (Source, error) {
		return NewSynthetic(width, height, fps, 0), nil
	}
}
