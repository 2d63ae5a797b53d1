// internal/receiver/control.go
package receiver

import (
	"context"
	"strings"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// ControlReceiver issues UI-level input to one control of the target window.
// It is rebuilt every step for the control the agent selected, which may be nil.
type ControlReceiver struct {
	*CommandSet
	control schemas.Control
}

var validButtons = map[string]bool{"left": true, "right": true, "middle": true}

// NewControlReceiver creates the UI command set for control.
func NewControlReceiver(control schemas.Control) *ControlReceiver {
	r := &ControlReceiver{control: control}
	r.CommandSet = NewCommandSet("control",
		Command{
			Name:    "click",
			Aliases: []string{"click_input"},
			Summary: "Click the control.",
			Params: []Param{
				{Name: "button", Type: ParamString, Default: "left"},
				{Name: "double", Type: ParamBool, Default: false},
			},
			Run: r.withControl(func(ctx context.Context, c schemas.Control, args Values) (any, error) {
				button := args.String("button")
				if !validButtons[button] {
					return nil, &InvalidArgumentError{Operation: "click", Argument: "button", Reason: "must be left, right or middle"}
				}
				return "", c.Click(ctx, button, args.Bool("double"))
			}),
		},
		Command{
			Name:    "set_edit_text",
			Summary: "Replace the text of an edit control.",
			Params:  []Param{{Name: "text", Type: ParamString, Required: true}},
			Run: r.withControl(func(ctx context.Context, c schemas.Control, args Values) (any, error) {
				return "", c.SetText(ctx, ReviseLineBreaks(args.String("text")))
			}),
		},
		Command{
			Name:    "keyboard_input",
			Summary: "Type keys into the control, focusing it first unless control_focus is false.",
			Params: []Param{
				{Name: "keys", Type: ParamString, Required: true},
				{Name: "control_focus", Type: ParamBool, Default: true},
			},
			Run: r.withControl(func(ctx context.Context, c schemas.Control, args Values) (any, error) {
				if args.Bool("control_focus") {
					if err := c.Click(ctx, "left", false); err != nil {
						return nil, err
					}
				}
				return "", c.TypeKeys(ctx, ReviseLineBreaks(args.String("keys")))
			}),
		},
		Command{
			Name:    "wheel_mouse_input",
			Summary: "Scroll the control; positive values scroll up.",
			Params:  []Param{{Name: "wheel_dist", Type: ParamInt, Required: true}},
			Run: r.withControl(func(ctx context.Context, c schemas.Control, args Values) (any, error) {
				return "", c.Scroll(ctx, args.Int("wheel_dist"))
			}),
		},
		Command{
			Name:    "texts",
			Summary: "Return the text content of the control.",
			Run: r.withControl(func(ctx context.Context, c schemas.Control, _ Values) (any, error) {
				return c.Texts(ctx)
			}),
		},
		Command{
			Name:    "summary",
			Summary: "Return a textual answer to the user without touching the UI.",
			Params:  []Param{{Name: "text", Type: ParamString, Required: true}},
			Run: func(_ context.Context, args Values) (any, error) {
				return args.String("text"), nil
			},
		},
	)
	return r
}

// Name returns the selected control's name, or "" when none is selected.
func (r *ControlReceiver) Name() string {
	if r.control == nil {
		return ""
	}
	return r.control.Name()
}

func (r *ControlReceiver) withControl(fn func(context.Context, schemas.Control, Values) (any, error)) Handler {
	return func(ctx context.Context, args Values) (any, error) {
		if r.control == nil {
			return nil, ErrNoControl
		}
		return fn(ctx, r.control, args)
	}
}

// ReviseLineBreaks turns escaped "\n" sequences from model output into newlines.
func ReviseLineBreaks(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
