// Package proctor turns a session's camera frames into warning events.
package proctor

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/detector"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/feed"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

const (
	// SampleInterval is the stride between frames sent to the detector.
	SampleInterval = 10
	// LogCooldown is the minimum spacing of two warnings of one session.
	LogCooldown = 2 * time.Second
)

// AlertObjects are the labels that raise a warning. Matching is exact.
var AlertObjects = map[string]bool{
	"cell phone": true,
	"book":       true,
	"notebook":   true,
}

// WarningType renders the warning text for a label, e.g. "Cell phone detected!".
func WarningType(label string) string {
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return " detected!"
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(label[size:]) + " detected!"
}

type Appender interface {
	Append(ctx context.Context, ev models.WarningEvent) error
}

type Counter interface {
	IncrementWarningCount(ctx context.Context, studentID, examID uint) (int, error)
}

// Publisher must not block.
type Publisher interface {
	PublishWarning(ev models.WarningEvent)
	PublishAutoSubmit(studentID, examID uint, count int64)
}

type Stats struct {
	FramesRead     uint64
	Sampled        uint64
	DetectorErrors uint64
	Persisted      uint64
	Suppressed     uint64
	StoreErrors    uint64
}

// Controller holds the sampling and cooldown state of one session. It is not
// safe for concurrent use; each session's loop owns its controller.
type Controller struct {
	sc      models.SessionContext
	det     detector.Detector
	labels  []string
	store   Appender
	counter Counter
	pub     Publisher
	now     func() time.Time

	frames  uint64
	lastLog time.Time
	stats   Stats
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(sc models.SessionContext, det detector.Detector, store Appender, counter Counter, pub Publisher, opts ...Option) *Controller {
	c := &Controller{
		sc:      sc,
		det:     det,
		labels:  det.Labels(),
		store:   store,
		counter: counter,
		pub:     pub,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe accounts for one frame read from the camera. sampled reports
// whether the frame went to the detector, ev is the warning persisted for it.
func (c *Controller) Observe(ctx context.Context, frame models.Frame) (sampled bool, ev *models.WarningEvent) {
	c.frames++
	c.stats.FramesRead++
	if c.frames%SampleInterval != 0 {
		return false, nil
	}
	c.stats.Sampled++

	detections, err := c.det.Detect(ctx, frame)
	if err != nil {
		c.stats.DetectorErrors++
		log.Printf("session %s: detector error on frame %d: %v", c.sc.ID, c.frames, err)
		return true, nil
	}

	label, ok := c.pick(detections)
	if !ok {
		return true, nil
	}

	now := c.now()
	if !c.lastLog.IsZero() && now.Sub(c.lastLog) <= LogCooldown {
		c.stats.Suppressed++
		return true, nil
	}

	event := models.WarningEvent{
		StudentID:   c.sc.StudentID,
		ExamID:      c.sc.ExamID,
		ObjectLabel: label,
		WarningType: WarningType(label),
		Timestamp:   now,
	}
	if err := c.store.Append(ctx, event); err != nil {
		c.stats.StoreErrors++
		log.Printf("session %s: dropping warning %q: %v", c.sc.ID, label, err)
		return true, nil
	}
	c.lastLog = now
	c.stats.Persisted++

	count, err := c.counter.IncrementWarningCount(ctx, c.sc.StudentID, c.sc.ExamID)
	if err != nil {
		log.Printf("session %s: failed to update warning count: %v", c.sc.ID, err)
	}

	c.pub.PublishWarning(event)
	if count == feed.AutoSubmitThreshold {
		c.pub.PublishAutoSubmit(c.sc.StudentID, c.sc.ExamID, int64(count))
	}
	return true, &event
}

// pick returns the label of the most confident alerting detection. Ties go to
// the earliest detection.
func (c *Controller) pick(detections []models.Detection) (string, bool) {
	best := -1
	var bestLabel string
	for i, d := range detections {
		label := d.Label
		if label == "" {
			label = detector.Label(c.labels, d.ClassID)
		}
		if !AlertObjects[label] {
			continue
		}
		if best < 0 || d.Confidence > detections[best].Confidence {
			best = i
			bestLabel = label
		}
	}
	return bestLabel, best >= 0
}

func (c *Controller) Stats() Stats { return c.stats }
