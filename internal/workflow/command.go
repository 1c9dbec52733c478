package workflow

import (
	"time"

	"github.com/kozaktomas/photo-booth/internal/capture"
)

// CommandType names a session command.
type CommandType string

// User commands.
const (
	CmdSelectTemplate  CommandType = "select_template"
	CmdConfirmTemplate CommandType = "confirm_template"
	CmdRetryCamera     CommandType = "retry_camera"
	CmdTakeShot        CommandType = "take_shot"
	CmdStartCountdown  CommandType = "start_countdown"
	CmdResetShot       CommandType = "reset_shot"
	CmdConfirmShot     CommandType = "confirm_shot"
	CmdTriggerSwap     CommandType = "trigger_swap"
	CmdRedo            CommandType = "redo"
	CmdNavigateBack    CommandType = "navigate_back"
)

// Completions of asynchronous intents.
const (
	CmdCameraReady   CommandType = "camera_ready"
	CmdCameraFailed  CommandType = "camera_failed"
	CmdCountdownTick CommandType = "countdown_tick"
	CmdPhotoCaptured CommandType = "photo_captured"
	CmdCaptureFailed CommandType = "capture_failed"
	CmdSwapSucceeded CommandType = "swap_succeeded"
	CmdSwapFailed    CommandType = "swap_failed"
)

// Command is an input to Apply. Only the fields relevant to Type are read.
type Command struct {
	Type CommandType

	TemplateID    string
	TemplateImage string

	Mode  string
	Model string

	Photo  *capture.Photo
	Result *SwapResult
	Err    error

	// Token identifies the countdown a tick belongs to.
	Token uint64
	// Generation identifies the session an async completion belongs to.
	Generation uint64
}

// IntentType names a side effect requested by Apply.
type IntentType string

// Intents.
const (
	IntentAcquireCamera   IntentType = "acquire_camera"
	IntentReleaseCamera   IntentType = "release_camera"
	IntentCaptureFrame    IntentType = "capture_frame"
	IntentScheduleTick    IntentType = "schedule_tick"
	IntentCancelCountdown IntentType = "cancel_countdown"
	IntentCallSwap        IntentType = "call_swap"
	IntentCancelSwap      IntentType = "cancel_swap"
)

// Intent is a side effect the owner of the state must perform.
type Intent struct {
	Type       IntentType
	Generation uint64
	Token      uint64
	Delay      time.Duration
	Swap       *SwapRequest
}

// SwapRequest is the payload of a swap call.
type SwapRequest struct {
	TemplateID    string
	TemplateImage string
	Photo         *capture.Photo
	Mode          string
	Model         string
}
