package detector

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
	"github.com/vmihailenco/msgpack/v5"
)

// Messages between the backend and the model worker are msgpack documents
// preceded by their length as a 4 byte big-endian integer.

const maxMessageSize = 64 << 20

type request struct {
	Type       string  `msgpack:"type"`
	FrameData  []byte  `msgpack:"frame_data,omitempty"`
	Width      int     `msgpack:"width,omitempty"`
	Height     int     `msgpack:"height,omitempty"`
	Seq        uint64  `msgpack:"seq,omitempty"`
	Confidence float64 `msgpack:"confidence,omitempty"`
}

type wireDetection struct {
	ClassID    int        `msgpack:"class_id"`
	Confidence float64    `msgpack:"confidence"`
	Box        models.Box `msgpack:"box"`
}

type response struct {
	Type       string          `msgpack:"type"`
	Labels     []string        `msgpack:"labels,omitempty"`
	Detections []wireDetection `msgpack:"detections,omitempty"`
	Error      string          `msgpack:"error,omitempty"`
}

func writeMessage(w io.Writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal msgpack message: %w", err)
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write msgpack data: %w", err)
	}
	return nil
}

func readMessage(r io.Reader, v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return fmt.Errorf("failed to read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("failed to read msgpack data: %w", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal msgpack message: %w", err)
	}
	return nil
}
