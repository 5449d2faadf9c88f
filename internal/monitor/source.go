// Package monitor runs the posture-monitoring producer loop: capture a frame,
// classify posture, track bad-posture duration against the alert threshold,
// and raise domain events through the callback registry.
package monitor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
)

// Posture classification verdicts.
const (
	PostureGood    = "good"
	PostureBad     = "bad"
	PostureUnknown = "unknown"
)

// Frame is an opaque captured image handed to the classifier. The capture
// and vision layers live behind these interfaces; the loop only moves frames
// between them.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// FrameSource produces frames from a capture device.
type FrameSource interface {
	// Capture grabs one frame, honoring context cancellation. A transient
	// device failure is an error; the loop tracks consecutive failures to
	// derive camera health.
	Capture(ctx context.Context) (Frame, error)
	Close() error
}

// Classifier turns a frame into a posture verdict.
type Classifier interface {
	Classify(frame Frame) (string, error)
}

// ErrCaptureFailed wraps device-level capture failures.
var ErrCaptureFailed = errors.Newf("frame capture failed").
	Component("monitor").
	Category(errors.CategoryCamera).
	Build()

// SyntheticSource is a FrameSource that fabricates frames, used in tests and
// the demo mode on machines without a camera. Failures can be injected to
// exercise the camera-health transitions.
type SyntheticSource struct {
	mu       sync.Mutex
	failNext int
	closed   bool
	counter  int
}

// NewSyntheticSource creates a source that always succeeds until failures are
// injected.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{}
}

// FailNext makes the next n captures fail.
func (s *SyntheticSource) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// Capture implements FrameSource.
func (s *SyntheticSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, errors.Newf("capture source closed").
			Component("monitor").
			Category(errors.CategoryCamera).
			Build()
	}
	if s.failNext > 0 {
		s.failNext--
		return Frame{}, ErrCaptureFailed
	}
	s.counter++
	return Frame{Data: []byte{byte(s.counter)}, CapturedAt: time.Now()}, nil
}

// Close implements FrameSource.
func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ScriptedClassifier replays a fixed sequence of verdicts, then repeats the
// last one. Used in tests to drive threshold and recovery scenarios.
type ScriptedClassifier struct {
	mu      sync.Mutex
	script  []string
	pos     int
	err     error
	errOnce bool
}

// NewScriptedClassifier creates a classifier that replays the given verdicts.
func NewScriptedClassifier(script ...string) *ScriptedClassifier {
	return &ScriptedClassifier{script: script}
}

// FailOnce makes the next classification return err.
func (c *ScriptedClassifier) FailOnce(err error) {
	c.mu.Lock()
	c.err = err
	c.errOnce = true
	c.mu.Unlock()
}

// Classify implements Classifier.
func (c *ScriptedClassifier) Classify(Frame) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errOnce {
		c.errOnce = false
		return PostureUnknown, c.err
	}
	if len(c.script) == 0 {
		return PostureUnknown, nil
	}
	verdict := c.script[min(c.pos, len(c.script)-1)]
	c.pos++
	return verdict, nil
}

// RandomClassifier flips between good and bad posture with a bias toward
// good, for demo mode.
type RandomClassifier struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewRandomClassifier seeds a demo classifier.
func NewRandomClassifier(seed int64) *RandomClassifier {
	return &RandomClassifier{rng: rand.New(rand.NewSource(seed))}
}

// Classify implements Classifier.
func (c *RandomClassifier) Classify(Frame) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rng.Float64() < 0.8 {
		return PostureGood, nil
	}
	return PostureBad, nil
}
