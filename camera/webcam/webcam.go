// Package webcam reads frames from a local capture device through OpenCV.
package webcam

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"gocv.io/x/gocv"
)

type Webcam struct {
	device int

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	img    gocv.Mat
	seq    uint64
	closed bool
}

// Open acquires the capture device. The handle is released by Close.
func Open(device int) (*Webcam, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w: %w", device, camera.ErrUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: %w", device, camera.ErrUnavailable)
	}
	// keep latency low: always read the freshest frame
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	return &Webcam{device: device, vc: vc, img: gocv.NewMat()}, nil
}

// Read grabs the next frame and encodes it as JPEG. A failed grab means the
// device is gone and is reported as io.EOF.
func (w *Webcam) Read(ctx context.Context) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return models.Frame{}, camera.ErrClosed
	}

	if ok := w.vc.Read(&w.img); !ok || w.img.Empty() {
		return models.Frame{}, io.EOF
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, w.img)
	if err != nil {
		return models.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	w.seq++
	return models.Frame{
		Seq:       w.seq,
		Timestamp: time.Now(),
		Width:     w.img.Cols(),
		Height:    w.img.Rows(),
		Data:      bytes.Clone(buf.GetBytes()),
	}, nil
}

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.img.Close()
	return w.vc.Close()
}

// Opener opens the device once per session.
func Opener(device int) camera.Opener {
	return func(_ context.Context, _ models.SessionContext) (camera.Source, error) {
		return Open(device)
	}
}
