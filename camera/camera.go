// Package camera provides the frame sources a proctoring session reads from.
//
// A Source hands out one JPEG frame per Read. Read returns io.EOF once the
// device has no more frames and ErrClosed after Close. Any other error is a
// failure of a single frame and the caller may keep reading.
package camera

import (
	"context"
	"errors"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

var (
	ErrClosed      = errors.New("camera closed")
	ErrUnavailable = errors.New("camera unavailable")
)

type Source interface {
	Read(ctx context.Context) (models.Frame, error)
	Close() error
}

// Opener acquires a fresh source for one session. The caller owns the
// returned source and must close it.
type Opener func(ctx context.Context, sc models.SessionContext) (Source, error)
