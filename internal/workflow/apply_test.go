package workflow

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

func testPhoto() *capture.Photo {
	return &capture.Photo{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg", CapturedAt: time.Unix(1700000000, 0)}
}

func hasIntent(intents []Intent, t IntentType) bool {
	for _, intent := range intents {
		if intent.Type == t {
			return true
		}
	}
	return false
}

// mustApply applies cmd and fails the test on error.
func mustApply(t *testing.T, s State, cmd Command) (State, []Intent) {
	t.Helper()
	next, intents, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", cmd.Type, err)
	}
	return next, intents
}

// captureState returns a state on the capture step with an active camera.
func captureState(t *testing.T) State {
	t.Helper()
	s := NewState()
	s, _ = mustApply(t, s, Command{Type: CmdSelectTemplate, TemplateID: "men-classic-0", TemplateImage: "https://cdn/men/classic/0.jpg"})
	s, _ = mustApply(t, s, Command{Type: CmdConfirmTemplate})
	s, _ = mustApply(t, s, Command{Type: CmdCameraReady, Generation: s.Generation})
	return s
}

// previewState returns a state on the preview step.
func previewState(t *testing.T) State {
	t.Helper()
	s := captureState(t)
	s, _ = mustApply(t, s, Command{Type: CmdPhotoCaptured, Generation: s.Generation, Photo: testPhoto()})
	s, _ = mustApply(t, s, Command{Type: CmdConfirmShot})
	return s
}

func TestConfirmTemplate(t *testing.T) {
	cases := []struct {
		name     string
		setup    State
		wantStep Step
		wantErr  apperr.Kind
	}{
		{
			name:     "without template is rejected",
			setup:    NewState(),
			wantStep: StepSelect,
			wantErr:  apperr.KindValidation,
		},
		{
			name:     "with template enters capture",
			setup:    State{Step: StepSelect, SelectedTemplateID: "men-classic-0", SelectedTemplateImage: "a.jpg", Generation: 1},
			wantStep: StepCapture,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, intents, err := Apply(tc.setup, Command{Type: CmdConfirmTemplate})
			if tc.wantErr != "" {
				if !apperr.Is(err, tc.wantErr) {
					t.Fatalf("expected %s error, got %v", tc.wantErr, err)
				}
				if len(intents) != 0 {
					t.Errorf("expected no intents, got %v", intents)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next.Step != tc.wantStep {
				t.Errorf("expected step %s, got %s", tc.wantStep, next.Step)
			}
			if tc.wantErr == "" && !hasIntent(intents, IntentAcquireCamera) {
				t.Error("expected acquire camera intent")
			}
		})
	}
}

func TestSelectTemplate(t *testing.T) {
	s, _ := mustApply(t, NewState(), Command{Type: CmdSelectTemplate, TemplateID: "women-fantasy-2", TemplateImage: "elf.jpg"})
	if s.SelectedTemplateID != "women-fantasy-2" || s.SelectedTemplateImage != "elf.jpg" {
		t.Errorf("selection not recorded: %+v", s)
	}

	_, _, err := Apply(NewState(), Command{Type: CmdSelectTemplate, TemplateID: "x"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for empty image, got %v", err)
	}

	_, _, err = Apply(captureState(t), Command{Type: CmdSelectTemplate, TemplateImage: "b.jpg"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error outside select step, got %v", err)
	}
}

func TestConfirmShotWithoutPhoto(t *testing.T) {
	s := captureState(t)
	next, intents, err := Apply(s, Command{Type: CmdConfirmShot})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if next.Step != StepCapture {
		t.Errorf("expected to stay on capture, got %s", next.Step)
	}
	if hasIntent(intents, IntentReleaseCamera) {
		t.Error("camera must not be released on rejected confirm")
	}
}

func TestConfirmShotReleasesCamera(t *testing.T) {
	s := previewState(t)
	if s.Step != StepPreview {
		t.Fatalf("expected preview, got %s", s.Step)
	}
	if s.CameraActive || s.CapturedPhoto == nil {
		t.Errorf("expected inactive camera and kept photo, got %+v", s)
	}
}

func TestTakeShotRequiresCamera(t *testing.T) {
	s := captureState(t)
	s.CameraActive = false
	_, intents, err := Apply(s, Command{Type: CmdTakeShot})
	if !apperr.Is(err, apperr.KindCaptureDevice) {
		t.Fatalf("expected capture device error, got %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("expected no intents, got %v", intents)
	}
}

func TestTriggerSwapWithoutArtifacts(t *testing.T) {
	cases := []struct {
		name  string
		setup State
	}{
		{"no template", State{Step: StepPreview, CapturedPhoto: testPhoto(), Generation: 1}},
		{"no photo", State{Step: StepPreview, SelectedTemplateImage: "a.jpg", Generation: 1}},
		{"neither", State{Step: StepPreview, Generation: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, intents, err := Apply(tc.setup, Command{Type: CmdTriggerSwap})
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if hasIntent(intents, IntentCallSwap) {
				t.Error("no swap call may be issued")
			}
			if next.SwapInFlight {
				t.Error("swap must not be marked in flight")
			}
		})
	}
}

func TestTriggerSwap(t *testing.T) {
	s := previewState(t)
	next, intents := mustApply(t, s, Command{Type: CmdTriggerSwap, Mode: "landscape", Model: "headswap"})
	if !next.SwapInFlight {
		t.Error("expected swap in flight")
	}
	if len(intents) != 1 || intents[0].Type != IntentCallSwap {
		t.Fatalf("expected single call swap intent, got %v", intents)
	}
	req := intents[0].Swap
	if req.Mode != "landscape" || req.Model != "headswap" || req.TemplateImage != s.SelectedTemplateImage || req.Photo != s.CapturedPhoto {
		t.Errorf("unexpected swap request %+v", req)
	}

	_, intents, err := Apply(next, Command{Type: CmdTriggerSwap})
	if !apperr.Is(err, apperr.KindValidation) || hasIntent(intents, IntentCallSwap) {
		t.Errorf("expected second trigger to be rejected, got %v %v", intents, err)
	}
}

func TestTriggerSwapDefaults(t *testing.T) {
	_, intents := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
	if intents[0].Swap.Mode != constants.DefaultMode || intents[0].Swap.Model != constants.DefaultModel {
		t.Errorf("expected default mode and model, got %+v", intents[0].Swap)
	}
}

func TestSwapSucceededMissingArtifact(t *testing.T) {
	cases := []struct {
		name   string
		result *SwapResult
	}{
		{"no result", nil},
		{"no image", &SwapResult{ShareCode: "data:image/png;base64,AA"}},
		{"no share code", &SwapResult{ResultImageURL: "https://cdn/r.jpg"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
			next, _, err := Apply(s, Command{Type: CmdSwapSucceeded, Generation: s.Generation, Result: tc.result})
			if !apperr.Is(err, apperr.KindMissingArtifact) {
				t.Fatalf("expected missing artifact, got %v", err)
			}
			if next.SwapResult != nil {
				t.Error("swap result must stay unset")
			}
			if next.SwapInFlight {
				t.Error("trigger must be re-enabled")
			}
		})
	}
}

func TestSwapFailedReEnablesTrigger(t *testing.T) {
	s, _ := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
	next, _, err := Apply(s, Command{Type: CmdSwapFailed, Generation: s.Generation, Err: errors.New("connection reset")})
	if !apperr.Is(err, apperr.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if next.SwapInFlight || next.Step != StepPreview {
		t.Errorf("expected preview with trigger enabled, got %+v", next)
	}
	if !next.View().CanSwap {
		t.Error("expected swap to be possible again")
	}
}

func TestSwapMissingArtifactAfterEarlierResult(t *testing.T) {
	s, _ := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
	s, _ = mustApply(t, s, Command{Type: CmdSwapSucceeded, Generation: s.Generation, Result: &SwapResult{ResultImageURL: "r.jpg", ShareCode: "qr"}})

	s, _ = mustApply(t, s, Command{Type: CmdTriggerSwap})
	if s.SwapResult != nil {
		t.Fatal("a new swap must clear the previous result")
	}

	next, _, err := Apply(s, Command{Type: CmdSwapSucceeded, Generation: s.Generation, Result: &SwapResult{ResultImageURL: "r2.jpg"}})
	if !apperr.Is(err, apperr.KindMissingArtifact) {
		t.Fatalf("expected missing artifact, got %v", err)
	}
	if next.SwapResult != nil || next.SwapInFlight {
		t.Errorf("expected no result and trigger enabled, got %+v", next)
	}
}

func TestRedoCancelsSwapInFlight(t *testing.T) {
	s, _ := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
	_, intents := mustApply(t, s, Command{Type: CmdRedo})
	if !hasIntent(intents, IntentCancelSwap) {
		t.Errorf("expected swap cancellation, got %v", intents)
	}

	_, intents = mustApply(t, previewState(t), Command{Type: CmdRedo})
	if hasIntent(intents, IntentCancelSwap) {
		t.Errorf("no swap to cancel, got %v", intents)
	}
}

func TestRedoClearsSession(t *testing.T) {
	s, _ := mustApply(t, previewState(t), Command{Type: CmdTriggerSwap})
	s, _ = mustApply(t, s, Command{Type: CmdSwapSucceeded, Generation: s.Generation, Result: &SwapResult{ResultImageURL: "r.jpg", ShareCode: "qr"}})
	if s.SwapResult == nil {
		t.Fatal("expected swap result")
	}

	next, _ := mustApply(t, s, Command{Type: CmdRedo})
	if next.Step != StepSelect {
		t.Errorf("expected select, got %s", next.Step)
	}
	if next.SelectedTemplateID != "" || next.SelectedTemplateImage != "" || next.CapturedPhoto != nil || next.SwapResult != nil {
		t.Errorf("expected cleared session, got %+v", next)
	}
	if next.Generation == s.Generation {
		t.Error("expected new generation")
	}
}

func TestRedoOnlyFromPreview(t *testing.T) {
	next, _, err := Apply(captureState(t), Command{Type: CmdRedo})
	if !apperr.Is(err, apperr.KindValidation) || next.Step != StepCapture {
		t.Errorf("expected rejected redo on capture, got %s %v", next.Step, err)
	}
}

func TestNavigateBackReleasesCamera(t *testing.T) {
	s := captureState(t)
	next, intents := mustApply(t, s, Command{Type: CmdNavigateBack})
	if next.Step != StepSelect {
		t.Errorf("expected select, got %s", next.Step)
	}
	if !hasIntent(intents, IntentReleaseCamera) {
		t.Error("expected release camera intent")
	}

	again, intents := mustApply(t, next, Command{Type: CmdNavigateBack})
	if again.Step != StepSelect || hasIntent(intents, IntentReleaseCamera) {
		t.Errorf("second navigate back must be a no-op, got %v", intents)
	}
}

func TestCountdownCapturesAtZero(t *testing.T) {
	s := captureState(t)
	s, intents := mustApply(t, s, Command{Type: CmdStartCountdown})
	if s.Countdown != constants.CountdownTicks {
		t.Fatalf("expected countdown %d, got %d", constants.CountdownTicks, s.Countdown)
	}

	for i := constants.CountdownTicks - 1; i >= 0; i-- {
		if len(intents) != 1 || intents[0].Type != IntentScheduleTick {
			t.Fatalf("expected schedule tick before count %d, got %v", i, intents)
		}
		if intents[0].Delay != constants.CountdownInterval {
			t.Errorf("expected tick delay %v, got %v", constants.CountdownInterval, intents[0].Delay)
		}
		s, intents = mustApply(t, s, Command{Type: CmdCountdownTick, Token: intents[0].Token})
		if s.Countdown != i {
			t.Fatalf("expected countdown %d, got %d", i, s.Countdown)
		}
	}

	if !hasIntent(intents, IntentCaptureFrame) {
		t.Errorf("expected capture at zero, got %v", intents)
	}
}

func TestCountdownCancelledByNavigation(t *testing.T) {
	s := captureState(t)
	s, intents := mustApply(t, s, Command{Type: CmdStartCountdown})
	token := intents[0].Token
	s, _ = mustApply(t, s, Command{Type: CmdCountdownTick, Token: token})

	s, intents = mustApply(t, s, Command{Type: CmdNavigateBack})
	if !hasIntent(intents, IntentCancelCountdown) {
		t.Error("expected cancel countdown intent")
	}

	for i := 0; i < constants.CountdownTicks; i++ {
		next, intents, err := Apply(s, Command{Type: CmdCountdownTick, Token: token})
		if !errors.Is(err, ErrStale) {
			t.Fatalf("expected stale tick, got %v", err)
		}
		if hasIntent(intents, IntentCaptureFrame) || next.CapturedPhoto != nil {
			t.Fatal("stale tick must not capture")
		}
	}
}

func TestTakeShotCancelsCountdown(t *testing.T) {
	s := captureState(t)
	s, intents := mustApply(t, s, Command{Type: CmdStartCountdown})
	token := intents[0].Token

	s, intents = mustApply(t, s, Command{Type: CmdTakeShot})
	if !hasIntent(intents, IntentCancelCountdown) || !hasIntent(intents, IntentCaptureFrame) {
		t.Errorf("expected cancel and capture intents, got %v", intents)
	}
	if _, _, err := Apply(s, Command{Type: CmdCountdownTick, Token: token}); !errors.Is(err, ErrStale) {
		t.Errorf("expected old tick to be stale, got %v", err)
	}
}

func TestStartCountdownTwice(t *testing.T) {
	s, _ := mustApply(t, captureState(t), Command{Type: CmdStartCountdown})
	_, intents, err := Apply(s, Command{Type: CmdStartCountdown})
	if !apperr.Is(err, apperr.KindValidation) || len(intents) != 0 {
		t.Errorf("expected rejected restart, got %v %v", intents, err)
	}
}

func TestStaleCompletions(t *testing.T) {
	capturing := captureState(t)
	back, _ := mustApply(t, capturing, Command{Type: CmdNavigateBack})

	cases := []struct {
		name  string
		state State
		cmd   Command
	}{
		{"camera ready after back", back, Command{Type: CmdCameraReady, Generation: capturing.Generation}},
		{"camera failed after back", back, Command{Type: CmdCameraFailed, Generation: capturing.Generation, Err: errors.New("denied")}},
		{"photo after back", back, Command{Type: CmdPhotoCaptured, Generation: capturing.Generation, Photo: testPhoto()}},
		{"capture failed after back", back, Command{Type: CmdCaptureFailed, Generation: capturing.Generation, Err: errors.New("gone")}},
		{"swap after back", back, Command{Type: CmdSwapSucceeded, Generation: capturing.Generation, Result: &SwapResult{ResultImageURL: "r", ShareCode: "q"}}},
		{"swap not in flight", previewState(t), Command{Type: CmdSwapFailed, Generation: previewState(t).Generation, Err: errors.New("x")}},
		{"camera ready twice", capturing, Command{Type: CmdCameraReady, Generation: capturing.Generation}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, intents, err := Apply(tc.state, tc.cmd)
			if !errors.Is(err, ErrStale) {
				t.Fatalf("expected stale, got %v", err)
			}
			if len(intents) != 0 {
				t.Errorf("expected no intents, got %v", intents)
			}
			if next.Step != tc.state.Step || next.CapturedPhoto != tc.state.CapturedPhoto || next.SwapResult != tc.state.SwapResult {
				t.Error("stale completion must not change the state")
			}
		})
	}
}

func TestCameraFailedAndRetry(t *testing.T) {
	s := NewState()
	s, _ = mustApply(t, s, Command{Type: CmdSelectTemplate, TemplateImage: "a.jpg"})
	s, _ = mustApply(t, s, Command{Type: CmdConfirmTemplate})

	s, _, err := Apply(s, Command{Type: CmdCameraFailed, Generation: s.Generation, Err: errors.New("permission denied")})
	if !apperr.Is(err, apperr.KindCaptureDevice) {
		t.Fatalf("expected capture device error, got %v", err)
	}
	if s.Step != StepCapture || s.CameraPending || s.CameraActive {
		t.Errorf("expected capture step without camera, got %+v", s)
	}

	s, intents := mustApply(t, s, Command{Type: CmdRetryCamera})
	if !hasIntent(intents, IntentAcquireCamera) || !s.CameraPending {
		t.Errorf("expected camera acquisition, got %v", intents)
	}

	_, intents = mustApply(t, s, Command{Type: CmdRetryCamera})
	if len(intents) != 0 {
		t.Errorf("retry while pending must not acquire twice, got %v", intents)
	}
}

func TestResetShot(t *testing.T) {
	s := captureState(t)
	s, _ = mustApply(t, s, Command{Type: CmdPhotoCaptured, Generation: s.Generation, Photo: testPhoto()})
	s, _ = mustApply(t, s, Command{Type: CmdResetShot})
	if s.CapturedPhoto != nil || s.Step != StepCapture {
		t.Errorf("expected photo cleared on capture step, got %+v", s)
	}
}

func TestUnsupportedCommand(t *testing.T) {
	_, _, err := Apply(NewState(), Command{Type: "dance"})
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("expected unsupported command, got %v", err)
	}
}

// TestExactlyOneStep drives random command sequences, completing async
// intents as a runtime would, and checks the step invariants after each.
func TestExactlyOneStep(t *testing.T) {
	userCommands := []Command{
		{Type: CmdSelectTemplate, TemplateID: "men-classic-0", TemplateImage: "a.jpg"},
		{Type: CmdConfirmTemplate},
		{Type: CmdRetryCamera},
		{Type: CmdTakeShot},
		{Type: CmdStartCountdown},
		{Type: CmdResetShot},
		{Type: CmdConfirmShot},
		{Type: CmdTriggerSwap},
		{Type: CmdRedo},
		{Type: CmdNavigateBack},
	}

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		s := NewState()
		var pending []Intent
		for i := 0; i < 40; i++ {
			var cmd Command
			if len(pending) > 0 && rng.Intn(2) == 0 {
				intent := pending[0]
				pending = pending[1:]
				cmd = completionFor(intent, rng)
			} else {
				cmd = userCommands[rng.Intn(len(userCommands))]
			}

			next, intents, _ := Apply(s, cmd)
			for _, intent := range intents {
				if intent.Type != IntentReleaseCamera && intent.Type != IntentCancelCountdown && intent.Type != IntentCancelSwap {
					pending = append(pending, intent)
				}
			}
			s = next

			switch s.Step {
			case StepSelect:
				if s.CapturedPhoto != nil || s.SwapResult != nil || s.CameraActive {
					t.Fatalf("run %d: select step holds capture data: %+v", run, s)
				}
			case StepCapture:
				if s.SwapResult != nil {
					t.Fatalf("run %d: capture step holds swap result", run)
				}
			case StepPreview:
				if s.CameraActive || s.Countdown != 0 {
					t.Fatalf("run %d: preview step holds camera or countdown: %+v", run, s)
				}
			default:
				t.Fatalf("run %d: invalid step %d", run, s.Step)
			}
		}
	}
}

func completionFor(intent Intent, rng *rand.Rand) Command {
	switch intent.Type {
	case IntentAcquireCamera:
		if rng.Intn(4) == 0 {
			return Command{Type: CmdCameraFailed, Generation: intent.Generation, Err: errors.New("denied")}
		}
		return Command{Type: CmdCameraReady, Generation: intent.Generation}
	case IntentCaptureFrame:
		return Command{Type: CmdPhotoCaptured, Generation: intent.Generation, Photo: testPhoto()}
	case IntentScheduleTick:
		return Command{Type: CmdCountdownTick, Token: intent.Token}
	case IntentCallSwap:
		if rng.Intn(3) == 0 {
			return Command{Type: CmdSwapFailed, Generation: intent.Generation, Err: errors.New("boom")}
		}
		return Command{Type: CmdSwapSucceeded, Generation: intent.Generation, Result: &SwapResult{ResultImageURL: "r.jpg", ShareCode: "qr"}}
	default:
		panic("no completion for " + string(intent.Type))
	}
}
