// File: internal/agent/puppeteer.go
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// OpAnnotation asks for a fresh screenshot annotated only with the listed controls.
const OpAnnotation = "annotation"

// Puppeteer resolves an operation name to the receiver that can run it. UI
// commands go to the control selected for the current step; anything else
// goes to the application receiver when one is attached.
type Puppeteer struct {
	app      receiver.Receiver
	control  *receiver.ControlReceiver
	internal *receiver.CommandSet
}

// NewPuppeteer creates a resolver. app may be nil for UI-only automation.
func NewPuppeteer(app receiver.Receiver) *Puppeteer {
	p := &Puppeteer{
		app:     app,
		control: receiver.NewControlReceiver(nil),
	}
	p.internal = receiver.NewCommandSet("puppeteer", receiver.Command{
		Name:    OpAnnotation,
		Summary: "Re-annotate the screenshot with only the listed control labels.",
		Params:  []receiver.Param{{Name: "control_labels", Type: receiver.ParamList, Required: true}},
		Run: func(_ context.Context, args receiver.Values) (any, error) {
			labels, _ := args["control_labels"].([]any)
			return labelStrings(labels), nil
		},
	})
	return p
}

// App returns the attached application receiver, or nil.
func (p *Puppeteer) App() receiver.Receiver { return p.app }

// SetControl targets UI commands at control, which may be nil.
func (p *Puppeteer) SetControl(control schemas.Control) {
	p.control = receiver.NewControlReceiver(control)
}

// Commands lists every operation the puppeteer can dispatch, UI commands first.
func (p *Puppeteer) Commands() []receiver.Command {
	cmds := append(p.control.Commands(), p.internal.Commands()...)
	if p.app != nil {
		cmds = append(cmds, p.app.Commands()...)
	}
	return cmds
}

// Execute runs op with args. An empty operation does nothing.
func (p *Puppeteer) Execute(ctx context.Context, op string, args schemas.Args) (any, error) {
	switch {
	case op == "":
		return nil, nil
	case p.control.Supports(op):
		return p.control.Execute(ctx, op, args)
	case p.internal.Supports(op):
		return p.internal.Execute(ctx, op, args)
	case p.app != nil && p.app.Supports(op):
		return p.app.Execute(ctx, op, args)
	}
	return nil, &receiver.UnsupportedOperationError{Operation: op}
}

// CommandString renders an operation call for logs and the confirmation
// prompt, e.g. click(button="left", double=false).
func CommandString(op string, args schemas.Args) string {
	if op == "" {
		return ""
	}
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.Key+"="+formatValue(arg.Value))
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// labelStrings normalizes control labels that models emit as numbers or strings.
func labelStrings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// AnnotationLabels extracts the control_labels argument of a decision.
func AnnotationLabels(args schemas.Args) []string {
	v, ok := args.Get("control_labels")
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	return labelStrings(items)
}
