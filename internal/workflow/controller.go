package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/metrics"
)

// Swapper calls the swap service.
type Swapper interface {
	Swap(ctx context.Context, req SwapRequest) (*SwapResult, error)
}

// SwapRecord describes a completed swap.
type SwapRecord struct {
	Generation     uint64
	TemplateID     string
	TemplateImage  string
	Mode           string
	Model          string
	ResultImageURL string
	Duration       time.Duration
	CreatedAt      time.Time
}

// Recorder stores completed swaps.
type Recorder interface {
	RecordSwap(ctx context.Context, rec SwapRecord) error
}

// Controller owns the session state and performs the intents returned by
// Apply. It is the only writer of the state.
type Controller struct {
	device    capture.Device
	swapper   Swapper
	scheduler Scheduler
	recorder  Recorder
	events    *Broadcaster

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	stream capture.Stream
	timer  Timer
	closed bool

	// At most one swap call runs. A call triggered while a cancelled one is
	// still returning waits in pendingSwap.
	swapBusy    bool
	swapCancel  context.CancelFunc
	pendingSwap *queuedSwap
}

type queuedSwap struct {
	generation uint64
	req        SwapRequest
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the wall-clock scheduler used for countdown ticks.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithRecorder stores every successful swap.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// NewController creates a controller in the initial state.
func NewController(device capture.Device, swapper Swapper, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		device:    device,
		swapper:   swapper,
		scheduler: clockScheduler{},
		events:    &Broadcaster{},
		ctx:       ctx,
		cancel:    cancel,
		state:     NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the controller's event broadcaster.
func (c *Controller) Events() *Broadcaster {
	return c.events
}

// View returns a read-only snapshot of the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View()
}

// State returns a copy of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies a user command. Completion commands are produced by the
// controller itself and are rejected here.
func (c *Controller) Dispatch(cmd Command) (View, error) {
	if isCompletion(cmd.Type) {
		return c.View(), fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
	return c.dispatch(cmd, nil)
}

func isCompletion(t CommandType) bool {
	switch t {
	case CmdCameraReady, CmdCameraFailed, CmdCountdownTick, CmdPhotoCaptured,
		CmdCaptureFailed, CmdSwapSucceeded, CmdSwapFailed:
		return true
	}
	return false
}

// Wait blocks until all outstanding camera, capture and swap calls have
// completed. Countdown ticks that are still scheduled are not waited for.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels outstanding work, stops the countdown and releases the camera.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.releaseStreamLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.events.Close()
}

// dispatch applies cmd under the lock and performs its intents. onAccept
// runs under the lock when the command is accepted without error.
func (c *Controller) dispatch(cmd Command, onAccept func()) (View, error) {
	c.mu.Lock()
	if c.closed && isCompletion(cmd.Type) {
		view := c.state.View()
		c.mu.Unlock()
		log.WithField("command", cmd.Type).Debug("Dropped completion after close")
		return view, ErrStale
	}
	next, intents, err := Apply(c.state, cmd)
	c.state = next
	if errors.Is(err, ErrStale) {
		view := c.state.View()
		c.mu.Unlock()
		log.WithField("command", cmd.Type).Debug("Dropped stale completion")
		return view, err
	}
	if err == nil && onAccept != nil {
		onAccept()
	}
	for _, intent := range intents {
		c.perform(intent)
	}
	view := c.state.View()
	c.events.SendEvent(Event{Type: EventState, State: &view})
	if err != nil {
		c.events.SendEvent(Event{Type: EventNotice, Notice: newNotice(cmd.Type, err, time.Now())})
	}
	c.mu.Unlock()

	metrics.RecordCommand(string(cmd.Type), err)
	metrics.SetCameraActive(view.CameraActive)

	entry := log.WithFields(log.Fields{
		"command": cmd.Type,
		"step":    view.Step,
	})
	if err != nil {
		entry.WithError(err).Info("Command rejected")
	} else {
		entry.Debug("Command applied")
	}
	return view, err
}

// perform executes one intent. Called with c.mu held.
func (c *Controller) perform(intent Intent) {
	switch intent.Type {
	case IntentAcquireCamera:
		c.releaseStreamLocked()
		generation := intent.Generation
		c.goAsync(func(ctx context.Context) { c.openCamera(ctx, generation) })
	case IntentReleaseCamera:
		c.releaseStreamLocked()
	case IntentCaptureFrame:
		stream, generation := c.stream, intent.Generation
		c.goAsync(func(ctx context.Context) { c.captureFrame(ctx, stream, generation) })
	case IntentScheduleTick:
		c.stopTimerLocked()
		if c.closed {
			return
		}
		token := intent.Token
		c.timer = c.scheduler.AfterFunc(intent.Delay, func() {
			c.dispatch(Command{Type: CmdCountdownTick, Token: token}, nil) //nolint:errcheck // tick errors are broadcast as notices
		})
	case IntentCancelCountdown:
		c.stopTimerLocked()
	case IntentCallSwap:
		q := queuedSwap{generation: intent.Generation, req: *intent.Swap}
		if c.swapBusy {
			c.pendingSwap = &q
			return
		}
		c.startSwapLocked(q)
	case IntentCancelSwap:
		if c.swapCancel != nil {
			c.swapCancel()
		}
		c.pendingSwap = nil
	}
}

// startSwapLocked runs one swap call with its own cancellable context. The
// next queued call starts only after it has returned. Called with c.mu held.
func (c *Controller) startSwapLocked(q queuedSwap) {
	if c.closed {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.swapBusy = true
	c.swapCancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.callSwap(ctx, q.generation, q.req)
		cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		c.swapBusy = false
		c.swapCancel = nil
		if next := c.pendingSwap; next != nil {
			c.pendingSwap = nil
			c.startSwapLocked(*next)
		}
	}()
}

// goAsync runs fn in a tracked goroutine. Called with c.mu held.
func (c *Controller) goAsync(fn func(ctx context.Context)) {
	if c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) releaseStreamLocked() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Stop(); err != nil {
		log.WithError(err).Warn("Failed to stop camera stream")
	}
	c.stream = nil
	log.Debug("Camera released")
}

func (c *Controller) openCamera(ctx context.Context, generation uint64) {
	stream, err := c.device.Open(ctx)
	if err != nil {
		c.dispatch(Command{Type: CmdCameraFailed, Generation: generation, Err: err}, nil) //nolint:errcheck // broadcast as notice
		return
	}

	_, err = c.dispatch(Command{Type: CmdCameraReady, Generation: generation}, func() {
		c.releaseStreamLocked()
		c.stream = stream
	})
	if errors.Is(err, ErrStale) {
		// The session moved on while the camera was opening.
		if stopErr := stream.Stop(); stopErr != nil {
			log.WithError(stopErr).Warn("Failed to stop stale camera stream")
		}
	}
}

func (c *Controller) captureFrame(ctx context.Context, stream capture.Stream, generation uint64) {
	if stream == nil {
		c.dispatch(Command{Type: CmdCaptureFailed, Generation: generation, Err: capture.ErrStreamStopped}, nil) //nolint:errcheck // broadcast as notice
		return
	}
	photo, err := stream.Frame(ctx)
	if err != nil {
		c.dispatch(Command{Type: CmdCaptureFailed, Generation: generation, Err: err}, nil) //nolint:errcheck // broadcast as notice
		return
	}
	c.dispatch(Command{Type: CmdPhotoCaptured, Generation: generation, Photo: photo}, nil) //nolint:errcheck // broadcast as notice
}

func (c *Controller) callSwap(ctx context.Context, generation uint64, req SwapRequest) {
	start := time.Now()
	result, err := c.swapper.Swap(ctx, req)
	duration := time.Since(start)
	metrics.RecordSwap(req.Model, duration, err)

	if err != nil {
		c.dispatch(Command{Type: CmdSwapFailed, Generation: generation, Err: err}, nil) //nolint:errcheck // broadcast as notice
		return
	}

	_, err = c.dispatch(Command{Type: CmdSwapSucceeded, Generation: generation, Result: result}, nil)
	if err != nil || c.recorder == nil {
		return
	}

	rec := SwapRecord{
		Generation:     generation,
		TemplateID:     req.TemplateID,
		TemplateImage:  req.TemplateImage,
		Mode:           req.Mode,
		Model:          result.Model,
		ResultImageURL: result.ResultImageURL,
		Duration:       duration,
		CreatedAt:      time.Now(),
	}
	if rec.Model == "" {
		rec.Model = req.Model
	}
	if err := c.recorder.RecordSwap(ctx, rec); err != nil {
		log.WithError(err).Warn("Failed to record swap")
	}
}
