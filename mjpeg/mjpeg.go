// Package mjpeg writes a multipart/x-mixed-replace JPEG stream.
package mjpeg

import (
	"fmt"
	"io"
	"net/http"
)

const (
	Boundary    = "frame"
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

type Writer struct {
	w       io.Writer
	flusher http.Flusher
	frames  uint64
}

// NewWriter wraps w. If w is an http.Flusher every part is flushed as soon
// as it is written.
func NewWriter(w io.Writer) *Writer {
	mw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		mw.flusher = f
	}
	return mw
}

// WriteFrame writes one part. An error means the client is gone.
func (mw *Writer) WriteFrame(jpeg []byte) error {
	if _, err := fmt.Fprintf(mw.w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary); err != nil {
		return err
	}
	if _, err := mw.w.Write(jpeg); err != nil {
		return err
	}
	if _, err := io.WriteString(mw.w, "\r\n"); err != nil {
		return err
	}
	if mw.flusher != nil {
		mw.flusher.Flush()
	}
	mw.frames++
	return nil
}

func (mw *Writer) Frames() uint64 { return mw.frames }
