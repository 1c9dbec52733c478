// Package workflow implements the booth session: template selection, photo
// capture and swap preview.
//
// Apply is a pure transition function. It takes the current State and a
// Command and returns the next State together with the side-effect Intents
// the caller has to perform (open the camera, schedule a countdown tick,
// call the swap service, ...). Controller owns the session state and
// performs those intents.
package workflow

import (
	"fmt"

	"github.com/kozaktomas/photo-booth/internal/capture"
)

// Step is one of the three session screens.
type Step int

// Session steps.
const (
	StepSelect Step = iota + 1
	StepCapture
	StepPreview
)

func (s Step) String() string {
	switch s {
	case StepSelect:
		return "select"
	case StepCapture:
		return "capture"
	case StepPreview:
		return "preview"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Page returns the 1-based page number of the step.
func (s Step) Page() int {
	return int(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SwapResult is the outcome of a successful swap.
type SwapResult struct {
	ResultImageURL string `json:"result_image_url"`
	ShareCode      string `json:"share_code"`
	Model          string `json:"model,omitempty"`
}

// State is the session record. Exactly one writer may hold it.
type State struct {
	Step Step

	SelectedTemplateID    string
	SelectedTemplateImage string
	CapturedPhoto         *capture.Photo
	SwapResult            *SwapResult

	// CameraPending is set while a camera open is outstanding.
	CameraPending bool
	CameraActive  bool

	// Countdown is the number of remaining ticks, 0 when no countdown runs.
	Countdown      int
	CountdownToken uint64

	SwapInFlight bool

	// Generation changes on every return to StepSelect. Completions of
	// asynchronous work started under an older generation are stale.
	Generation uint64
}

// NewState returns the initial session state.
func NewState() State {
	return State{Step: StepSelect, Generation: 1}
}

// reset returns to StepSelect, clearing selection, photo and result.
func (s State) reset() State {
	return State{
		Step:           StepSelect,
		Generation:     s.Generation + 1,
		CountdownToken: s.CountdownToken + 1,
	}
}

// cancelCountdown invalidates the running countdown, if any.
func (s State) cancelCountdown() (State, []Intent) {
	if s.Countdown == 0 {
		return s, nil
	}
	token := s.CountdownToken
	s.Countdown = 0
	s.CountdownToken++
	return s, []Intent{{Type: IntentCancelCountdown, Token: token}}
}

// View is a read-only snapshot of the session for presentation.
type View struct {
	Step                  Step        `json:"step"`
	Page                  int         `json:"page"`
	SelectedTemplateID    string      `json:"selected_template_id,omitempty"`
	SelectedTemplateImage string      `json:"selected_template_image,omitempty"`
	HasPhoto              bool        `json:"has_photo"`
	CapturedPhoto         string      `json:"captured_photo,omitempty"`
	SwapResult            *SwapResult `json:"swap_result,omitempty"`
	CameraActive          bool        `json:"camera_active"`
	CameraPending         bool        `json:"camera_pending"`
	Countdown             int         `json:"countdown"`
	SwapInFlight          bool        `json:"swap_in_flight"`
	CanConfirmTemplate    bool        `json:"can_confirm_template"`
	CanConfirmShot        bool        `json:"can_confirm_shot"`
	CanSwap               bool        `json:"can_swap"`
}

// View returns the presentation snapshot of s.
func (s State) View() View {
	v := View{
		Step:                  s.Step,
		Page:                  s.Step.Page(),
		SelectedTemplateID:    s.SelectedTemplateID,
		SelectedTemplateImage: s.SelectedTemplateImage,
		HasPhoto:              s.CapturedPhoto != nil,
		CameraActive:          s.CameraActive,
		CameraPending:         s.CameraPending,
		Countdown:             s.Countdown,
		SwapInFlight:          s.SwapInFlight,
	}
	if s.CapturedPhoto != nil {
		v.CapturedPhoto = s.CapturedPhoto.DataURL()
	}
	if s.SwapResult != nil {
		result := *s.SwapResult
		v.SwapResult = &result
	}
	v.CanConfirmTemplate = s.Step == StepSelect && s.SelectedTemplateImage != ""
	v.CanConfirmShot = s.Step == StepCapture && s.CapturedPhoto != nil
	v.CanSwap = s.Step == StepPreview && !s.SwapInFlight && s.SelectedTemplateImage != "" && s.CapturedPhoto != nil
	return v
}
