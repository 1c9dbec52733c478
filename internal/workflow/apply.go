package workflow

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

// ErrStale is returned for completions of work that belongs to a countdown,
// camera open or swap the session has since moved past. The state is
// unchanged and nothing should be shown to the user.
var ErrStale = errors.New("stale completion")

// ErrUnsupportedCommand is returned for unknown command types.
var ErrUnsupportedCommand = errors.New("unsupported command")

// Apply computes the transition for cmd. The returned state is always the
// one to adopt; a non-nil error explains why the command was rejected or
// reports a failed asynchronous operation.
func Apply(s State, cmd Command) (State, []Intent, error) {
	switch cmd.Type {
	case CmdSelectTemplate:
		return selectTemplate(s, cmd)
	case CmdConfirmTemplate:
		return confirmTemplate(s)
	case CmdCameraReady:
		return cameraReady(s, cmd)
	case CmdCameraFailed:
		return cameraFailed(s, cmd)
	case CmdRetryCamera:
		return retryCamera(s)
	case CmdTakeShot:
		return takeShot(s)
	case CmdStartCountdown:
		return startCountdown(s)
	case CmdCountdownTick:
		return countdownTick(s, cmd)
	case CmdPhotoCaptured:
		return photoCaptured(s, cmd)
	case CmdCaptureFailed:
		return captureFailed(s, cmd)
	case CmdResetShot:
		return resetShot(s)
	case CmdConfirmShot:
		return confirmShot(s)
	case CmdTriggerSwap:
		return triggerSwap(s, cmd)
	case CmdSwapSucceeded:
		return swapSucceeded(s, cmd)
	case CmdSwapFailed:
		return swapFailed(s, cmd)
	case CmdRedo:
		return redo(s)
	case CmdNavigateBack:
		return navigateBack(s)
	default:
		return s, nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
}

func wrongStep(op string, s State) error {
	return apperr.Validation(op, fmt.Sprintf("not available on the %s step", s.Step))
}

func selectTemplate(s State, cmd Command) (State, []Intent, error) {
	const op = "select template"
	if s.Step != StepSelect {
		return s, nil, wrongStep(op, s)
	}
	if cmd.TemplateImage == "" {
		return s, nil, apperr.Validation(op, "please select an image first")
	}
	s.SelectedTemplateID = cmd.TemplateID
	s.SelectedTemplateImage = cmd.TemplateImage
	return s, nil, nil
}

func confirmTemplate(s State) (State, []Intent, error) {
	const op = "confirm template"
	if s.Step != StepSelect {
		return s, nil, wrongStep(op, s)
	}
	if s.SelectedTemplateImage == "" {
		return s, nil, apperr.Validation(op, "please select an image first")
	}
	s.Step = StepCapture
	s.CameraPending = true
	return s, []Intent{{Type: IntentAcquireCamera, Generation: s.Generation}}, nil
}

// awaitingCamera reports whether a camera completion for generation is current.
func awaitingCamera(s State, generation uint64) bool {
	return s.Step == StepCapture && s.Generation == generation && s.CameraPending
}

func cameraReady(s State, cmd Command) (State, []Intent, error) {
	if !awaitingCamera(s, cmd.Generation) {
		return s, nil, ErrStale
	}
	s.CameraPending = false
	s.CameraActive = true
	return s, nil, nil
}

func cameraFailed(s State, cmd Command) (State, []Intent, error) {
	if !awaitingCamera(s, cmd.Generation) {
		return s, nil, ErrStale
	}
	s.CameraPending = false
	s.CameraActive = false
	return s, nil, classify(cmd.Err, func(err error) error {
		return apperr.CaptureDevice("open camera", err)
	})
}

func retryCamera(s State) (State, []Intent, error) {
	const op = "retry camera"
	if s.Step != StepCapture {
		return s, nil, wrongStep(op, s)
	}
	if s.CameraActive || s.CameraPending {
		return s, nil, nil
	}
	s.CameraPending = true
	return s, []Intent{{Type: IntentAcquireCamera, Generation: s.Generation}}, nil
}

func takeShot(s State) (State, []Intent, error) {
	const op = "take photo"
	if s.Step != StepCapture {
		return s, nil, wrongStep(op, s)
	}
	if !s.CameraActive {
		return s, nil, apperr.CaptureDevice(op, errors.New("camera is not active"))
	}
	s, intents := s.cancelCountdown()
	intents = append(intents, Intent{Type: IntentCaptureFrame, Generation: s.Generation})
	return s, intents, nil
}

func startCountdown(s State) (State, []Intent, error) {
	const op = "start countdown"
	if s.Step != StepCapture {
		return s, nil, wrongStep(op, s)
	}
	if !s.CameraActive {
		return s, nil, apperr.CaptureDevice(op, errors.New("camera is not active"))
	}
	if s.Countdown > 0 {
		return s, nil, apperr.Validation(op, "countdown is already running")
	}
	s.CountdownToken++
	s.Countdown = constants.CountdownTicks
	return s, []Intent{{Type: IntentScheduleTick, Token: s.CountdownToken, Delay: constants.CountdownInterval}}, nil
}

func countdownTick(s State, cmd Command) (State, []Intent, error) {
	if s.Step != StepCapture || s.Countdown == 0 || cmd.Token != s.CountdownToken {
		return s, nil, ErrStale
	}
	s.Countdown--
	if s.Countdown > 0 {
		return s, []Intent{{Type: IntentScheduleTick, Token: s.CountdownToken, Delay: constants.CountdownInterval}}, nil
	}
	if !s.CameraActive {
		return s, nil, apperr.CaptureDevice("countdown capture", errors.New("camera is not active"))
	}
	return s, []Intent{{Type: IntentCaptureFrame, Generation: s.Generation}}, nil
}

func photoCaptured(s State, cmd Command) (State, []Intent, error) {
	if s.Step != StepCapture || s.Generation != cmd.Generation {
		return s, nil, ErrStale
	}
	if cmd.Photo == nil {
		return s, nil, apperr.CaptureDevice("take photo", errors.New("no frame captured"))
	}
	s.CapturedPhoto = cmd.Photo
	return s, nil, nil
}

func captureFailed(s State, cmd Command) (State, []Intent, error) {
	if s.Step != StepCapture || s.Generation != cmd.Generation {
		return s, nil, ErrStale
	}
	return s, nil, classify(cmd.Err, func(err error) error {
		return apperr.CaptureDevice("take photo", err)
	})
}

func resetShot(s State) (State, []Intent, error) {
	if s.Step != StepCapture {
		return s, nil, wrongStep("reset photo", s)
	}
	s.CapturedPhoto = nil
	return s, nil, nil
}

func confirmShot(s State) (State, []Intent, error) {
	const op = "confirm photo"
	if s.Step != StepCapture {
		return s, nil, wrongStep(op, s)
	}
	if s.CapturedPhoto == nil {
		return s, nil, apperr.Validation(op, "please take a photo first")
	}
	s, intents := s.cancelCountdown()
	s.Step = StepPreview
	s.CameraActive = false
	s.CameraPending = false
	intents = append(intents, Intent{Type: IntentReleaseCamera})
	return s, intents, nil
}

func triggerSwap(s State, cmd Command) (State, []Intent, error) {
	const op = "swap"
	if s.Step != StepPreview {
		return s, nil, wrongStep(op, s)
	}
	if s.SelectedTemplateImage == "" || s.CapturedPhoto == nil {
		return s, nil, apperr.Validation(op, "please select both a template and capture a photo")
	}
	if s.SwapInFlight {
		return s, nil, apperr.Validation(op, "a swap is already in progress")
	}

	mode, model := cmd.Mode, cmd.Model
	if mode == "" {
		mode = constants.DefaultMode
	}
	if model == "" {
		model = constants.DefaultModel
	}

	s.SwapInFlight = true
	s.SwapResult = nil
	return s, []Intent{{
		Type:       IntentCallSwap,
		Generation: s.Generation,
		Swap: &SwapRequest{
			TemplateID:    s.SelectedTemplateID,
			TemplateImage: s.SelectedTemplateImage,
			Photo:         s.CapturedPhoto,
			Mode:          mode,
			Model:         model,
		},
	}}, nil
}

// awaitingSwap reports whether a swap completion for generation is current.
func awaitingSwap(s State, generation uint64) bool {
	return s.Step == StepPreview && s.Generation == generation && s.SwapInFlight
}

func swapSucceeded(s State, cmd Command) (State, []Intent, error) {
	if !awaitingSwap(s, cmd.Generation) {
		return s, nil, ErrStale
	}
	s.SwapInFlight = false
	if cmd.Result == nil || cmd.Result.ResultImageURL == "" || cmd.Result.ShareCode == "" {
		return s, nil, apperr.MissingArtifact("swap", "no image URL or QR code received from server")
	}
	result := *cmd.Result
	s.SwapResult = &result
	return s, nil, nil
}

func swapFailed(s State, cmd Command) (State, []Intent, error) {
	if !awaitingSwap(s, cmd.Generation) {
		return s, nil, ErrStale
	}
	s.SwapInFlight = false
	return s, nil, classify(cmd.Err, func(err error) error {
		return apperr.Transport("swap", err)
	})
}

func redo(s State) (State, []Intent, error) {
	if s.Step != StepPreview {
		return s, nil, wrongStep("redo", s)
	}
	return leave(s)
}

func navigateBack(s State) (State, []Intent, error) {
	return leave(s)
}

// leave returns to StepSelect, cancelling the countdown and the swap call
// and releasing the camera when held.
func leave(s State) (State, []Intent, error) {
	s, intents := s.cancelCountdown()
	if s.CameraActive || s.CameraPending {
		intents = append(intents, Intent{Type: IntentReleaseCamera})
	}
	if s.SwapInFlight {
		intents = append(intents, Intent{Type: IntentCancelSwap, Generation: s.Generation})
	}
	return s.reset(), intents, nil
}

// classify returns err unchanged when it already carries a kind, otherwise
// wraps it with fallback.
func classify(err error, fallback func(error) error) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	return fallback(err)
}
