package schemas

import (
	"context"
	"image"
)

// -- LLM Interfaces --

// GenerationOptions controls sampling and output format for one request.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
	ForceJSONFormat bool    `json:"force_json_format"`
}

// GenerationRequest is a complete prompt for a vision capable model. Images
// are PNG encoded and are sent after the text in order.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Images       [][]byte          `json:"-"`
	Options      GenerationOptions `json:"options"`
}

// Generation is the raw output of one engine call.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}

// LLMClient is a single backing engine (one provider, one model).
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (Generation, error)
	Close() error
}

// Oracle is the decision service the agents talk to. The channel tags the
// caller (HOSTAGENT, APPAGENT, ...) and allowFallback permits a secondary
// engine when the primary fails. The returned cost is unknown when the
// engine cannot price the call.
type Oracle interface {
	Send(ctx context.Context, req GenerationRequest, channel string, allowFallback bool) (string, Cost, error)
}

// -- UI Automation Interfaces --

// Window is a top level application window on the desktop.
type Window interface {
	// Title is the text shown in the title bar, used as the process display name.
	Title() string
	// AppRoot is the stable identifier of the owning application, e.g. "WINWORD.EXE".
	AppRoot() string
	Focus(ctx context.Context) error
}

// Control is a UI element inside a window that actions can target.
type Control interface {
	Name() string
	ControlType() string
	Rect() image.Rectangle
	Click(ctx context.Context, button string, double bool) error
	SetText(ctx context.Context, text string) error
	TypeKeys(ctx context.Context, keys string) error
	Scroll(ctx context.Context, wheelDist int) error
	Texts(ctx context.Context) ([]string, error)
}

// Desktop enumerates the windows an agent may choose from.
type Desktop interface {
	Windows(ctx context.Context) ([]Window, error)
}

// ControlInventory lists the interactive controls of a window.
type ControlInventory interface {
	Controls(ctx context.Context, w Window, controlTypes []string) ([]Control, error)
}

// Photographer captures window images. Annotate draws each label next to its
// control; Highlight outlines the given controls. Capture with a nil window
// shoots the whole screen.
type Photographer interface {
	Capture(ctx context.Context, w Window) ([]byte, error)
	Annotate(ctx context.Context, w Window, labels []string, controls []Control) ([]byte, error)
	Highlight(ctx context.Context, w Window, controls []Control) ([]byte, error)
}
