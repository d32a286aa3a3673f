package proctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

// maxReadErrors is how many consecutive bad frames end a session.
const maxReadErrors = 25

// Pipeline is the sequential per-session loop: read, maybe detect, stream.
type Pipeline struct {
	sc   models.SessionContext
	ctrl *Controller
}

func NewPipeline(sc models.SessionContext, ctrl *Controller) *Pipeline {
	return &Pipeline{sc: sc, ctrl: ctrl}
}

// Run reads src until it ends, ctx is cancelled or emit fails. emit failing
// means the client went away and is not an error. The source is closed on
// every path out of Run.
func (p *Pipeline) Run(ctx context.Context, src camera.Source, emit func(models.Frame) error) error {
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("session %s: error closing camera: %v", p.sc.ID, err)
		}
		st := p.ctrl.Stats()
		log.Printf("session %s ended: frames=%d sampled=%d warnings=%d suppressed=%d detector_errors=%d store_errors=%d",
			p.sc.ID, st.FramesRead, st.Sampled, st.Persisted, st.Suppressed, st.DetectorErrors, st.StoreErrors)
	}()

	bad := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		frame, err := src.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, camera.ErrClosed), ctx.Err() != nil:
				return nil
			}
			bad++
			if bad >= maxReadErrors {
				return fmt.Errorf("camera read: %w", err)
			}
			continue
		}
		bad = 0

		p.ctrl.Observe(ctx, frame)
		if err := emit(frame); err != nil {
			return nil
		}
	}
}
