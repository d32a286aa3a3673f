package mjpeg

import (
	"bytes"
	"errors"
	"mime"
	"mime/multipart"
	"net/http/httptest"
	"testing"
)

func TestWriteFrameFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFrame([]byte("JPEG")); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "--frame\r\nContent-Type: image/jpeg\r\n\r\nJPEG\r\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestStreamParsesAsMultipart(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)
	frames := [][]byte{{0xff, 0xd8, 1}, {0xff, 0xd8, 2}, {0xff, 0xd8, 3}}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if !rec.Flushed {
		t.Fatal("expected the recorder to be flushed")
	}
	if w.Frames() != 3 {
		t.Fatalf("frames = %d", w.Frames())
	}

	_, params, err := mime.ParseMediaType(ContentType)
	if err != nil {
		t.Fatalf("content type: %v", err)
	}
	// close the stream so the reader sees a terminated body
	rec.Body.WriteString("--frame--\r\n")
	mr := multipart.NewReader(rec.Body, params["boundary"])
	for i := range frames {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("part %d: %v", i, err)
		}
		if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Fatalf("part %d content type %q", i, ct)
		}
		var body bytes.Buffer
		body.ReadFrom(part)
		if !bytes.Equal(body.Bytes(), frames[i]) {
			t.Fatalf("part %d = %v", i, body.Bytes())
		}
	}
}

type brokenConn struct{}

func (brokenConn) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteFrameClientGone(t *testing.T) {
	w := NewWriter(brokenConn{})
	if err := w.WriteFrame([]byte("x")); err == nil {
		t.Fatal("expected error")
	}
	if w.Frames() != 0 {
		t.Fatal("failed frame counted")
	}
}
