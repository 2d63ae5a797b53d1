package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

func newDocumentReceiver(obj receiver.Object) receiver.Receiver {
	entry, _ := receiver.DefaultRegistry().Lookup("WINWORD.EXE")
	return receiver.NewDocumentReceiver(entry, obj)
}

// -- Routing --

func TestPuppeteer_RoutesControlCommands(t *testing.T) {
	ctx := context.Background()
	p := NewPuppeteer(nil)
	ctrl := &fakeControl{name: "Open"}
	p.SetControl(ctrl)

	_, err := p.Execute(ctx, "click", schemas.Args{{Key: "button", Value: "right"}})
	require.NoError(t, err)
	_, err = p.Execute(ctx, "click_input", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"right", "left"}, ctrl.clicks)
}

func TestPuppeteer_RoutesAppCommands(t *testing.T) {
	obj := &fakeObject{name: "draft"}
	p := NewPuppeteer(newDocumentReceiver(obj))

	out, err := p.Execute(context.Background(), "select_table", schemas.Args{{Key: "number", Value: float64(2)}})
	require.NoError(t, err)
	assert.Equal(t, "SelectTable done", out)
	assert.Equal(t, []string{"SelectTable"}, obj.invoked)
}

func TestPuppeteer_EmptyOperationIsNoop(t *testing.T) {
	p := NewPuppeteer(nil)
	out, err := p.Execute(context.Background(), "", nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestPuppeteer_UnsupportedOperation(t *testing.T) {
	p := NewPuppeteer(nil)
	_, err := p.Execute(context.Background(), "insert_table", schemas.Args{{Key: "rows", Value: 1.0}})

	var unsupported *receiver.UnsupportedOperationError
	require.True(t, errors.As(err, &unsupported), "document commands need an app receiver")
	assert.Equal(t, "insert_table", unsupported.Operation)
}

func TestPuppeteer_ControlCommandWithoutControl(t *testing.T) {
	p := NewPuppeteer(nil)
	_, err := p.Execute(context.Background(), "click", nil)
	assert.ErrorIs(t, err, receiver.ErrNoControl)

	out, err := p.Execute(context.Background(), "summary", schemas.Args{{Key: "text", Value: "42 files"}})
	require.NoError(t, err, "summary needs no control")
	assert.Equal(t, "42 files", out)
}

func TestPuppeteer_Annotation(t *testing.T) {
	p := NewPuppeteer(nil)
	args := schemas.Args{{Key: "control_labels", Value: []any{"3", float64(7)}}}

	out, err := p.Execute(context.Background(), OpAnnotation, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "7"}, out)
	assert.Equal(t, []string{"3", "7"}, AnnotationLabels(args))
	assert.Nil(t, AnnotationLabels(nil))
}

func TestPuppeteer_Commands(t *testing.T) {
	names := func(cmds []receiver.Command) []string {
		out := make([]string, len(cmds))
		for i, c := range cmds {
			out[i] = c.Name
		}
		return out
	}

	uiOnly := names(NewPuppeteer(nil).Commands())
	assert.Contains(t, uiOnly, "click")
	assert.Contains(t, uiOnly, OpAnnotation)
	assert.NotContains(t, uiOnly, "insert_table")

	withApp := names(NewPuppeteer(newDocumentReceiver(&fakeObject{name: "d"})).Commands())
	assert.Contains(t, withApp, "insert_table")
	assert.Equal(t, "click", withApp[0], "UI commands are listed first")
}

// -- Command Strings --

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		op   string
		args schemas.Args
		want string
	}{
		{"empty op", "", schemas.Args{{Key: "x", Value: 1}}, ""},
		{"no args", "texts", nil, "texts()"},
		{"ordered args", "click", schemas.Args{{Key: "button", Value: "left"}, {Key: "double", Value: false}}, `click(button="left", double=false)`},
		{"quotes escaped", "set_edit_text", schemas.Args{{Key: "text", Value: `say "hi"`}}, `set_edit_text(text="say \"hi\"")`},
		{"list value", "annotation", schemas.Args{{Key: "control_labels", Value: []any{"1", "2"}}}, `annotation(control_labels=["1","2"])`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandString(tt.op, tt.args))
		})
	}
}
