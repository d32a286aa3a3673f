package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

var (
	ErrWorkerStopped = errors.New("detector worker stopped")
	ErrTimeout       = errors.New("detector worker timed out")
)

type WorkerConfig struct {
	Command    string
	Args       []string
	Confidence float64
	// StartTimeout bounds the ready handshake.
	StartTimeout time.Duration
	// CallTimeout bounds one inference round trip.
	CallTimeout time.Duration
}

// Worker runs the model in a child process and talks to it over stdin/stdout.
// One request is in flight at a time.
type Worker struct {
	cfg    WorkerConfig
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	labels []string

	mu      sync.Mutex
	stopped atomic.Bool

	calls    atomic.Uint64
	failures atomic.Uint64

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Start spawns the worker process and waits for its ready message. Any
// failure here is fatal for the caller: the pipeline cannot run without it.
func Start(ctx context.Context, cfg WorkerConfig) (*Worker, error) {
	if cfg.Command == "" {
		return nil, errors.New("detector command is empty")
	}
	cmd := exec.Command(cfg.Command, cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}

	w := newWorker(cfg, stdin, bufio.NewReader(stdout))
	w.cmd = cmd
	w.wg.Add(1)
	go w.logStderr(stderr)

	if err := w.handshake(ctx); err != nil {
		w.Close()
		return nil, err
	}
	log.Printf("detector worker started: pid=%d labels=%d", cmd.Process.Pid, len(w.labels))
	return w, nil
}

func newWorker(cfg WorkerConfig, stdin io.WriteCloser, stdout io.Reader) *Worker {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 60 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &Worker{cfg: cfg, stdin: stdin, stdout: stdout}
}

// handshake waits for {"type":"ready"}. A worker that sends no label table
// is assumed to serve a COCO model.
func (w *Worker) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.StartTimeout)
	defer cancel()

	done := make(chan error, 1)
	var resp response
	go func() { done <- readMessage(w.stdout, &resp) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("detector handshake: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("detector handshake: %w", err)
		}
	}
	if resp.Error != "" {
		return fmt.Errorf("detector handshake: %s", resp.Error)
	}
	if resp.Type != "ready" {
		return fmt.Errorf("detector handshake: unexpected message %q", resp.Type)
	}
	w.labels = resp.Labels
	if len(w.labels) == 0 {
		w.labels = COCOLabels
	}
	return nil
}

func (w *Worker) Labels() []string { return w.labels }

// Detect sends one frame and waits for its detections. A cancelled ctx only
// prevents new requests: once a frame is on the pipe the reply must be read
// or the stream falls out of step for every other session.
func (w *Worker) Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.stopped.Load() {
		return nil, ErrWorkerStopped
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped.Load() {
		return nil, ErrWorkerStopped
	}
	w.calls.Add(1)

	req := request{
		Type:       "detect",
		FrameData:  frame.Data,
		Width:      frame.Width,
		Height:     frame.Height,
		Seq:        frame.Seq,
		Confidence: w.cfg.Confidence,
	}
	type result struct {
		resp response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		if r.err = writeMessage(w.stdin, req); r.err == nil {
			r.err = readMessage(w.stdout, &r.resp)
		}
		done <- r
	}()

	timer := time.NewTimer(w.cfg.CallTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		// the reply may still arrive later; nobody can tell which frame it
		// belongs to, so the worker is unusable from here on
		w.failures.Add(1)
		w.stop()
		return nil, ErrTimeout
	case r := <-done:
		if r.err != nil {
			w.failures.Add(1)
			w.stop()
			return nil, fmt.Errorf("%w: %w", ErrWorkerStopped, r.err)
		}
		if r.resp.Error != "" {
			w.failures.Add(1)
			return nil, fmt.Errorf("detector: %s", r.resp.Error)
		}
		out := make([]models.Detection, 0, len(r.resp.Detections))
		for _, d := range r.resp.Detections {
			out = append(out, models.Detection{
				ClassID:    d.ClassID,
				Confidence: d.Confidence,
				Box:        d.Box,
			})
		}
		return out, nil
	}
}

// Stats returns the number of inference calls and failed calls so far.
func (w *Worker) Stats() (calls, failures uint64) {
	return w.calls.Load(), w.failures.Load()
}

func (w *Worker) stop() {
	if w.stopped.Swap(true) {
		return
	}
	log.Println("detector worker stopped")
	w.stdin.Close()
	if w.cmd != nil && w.cmd.Process != nil {
		w.cmd.Process.Kill()
	}
}

// Close asks the worker to exit by closing its stdin and kills it if it has
// not exited after two seconds.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.stopped.Store(true)
		w.stdin.Close()
		if w.cmd == nil {
			return
		}
		exited := make(chan error, 1)
		go func() { exited <- w.cmd.Wait() }()
		select {
		case <-exited:
		case <-time.After(2 * time.Second):
			log.Println("detector worker did not exit, killing")
			w.cmd.Process.Kill()
			<-exited
		}
		w.wg.Wait()
	})
	return nil
}

func (w *Worker) logStderr(r io.Reader) {
	defer w.wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Printf("detector: %s", scanner.Text())
	}
}
