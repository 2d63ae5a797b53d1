package receiver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// -- Command Binding --

func TestCommand_Bind(t *testing.T) {
	t.Parallel()
	cmd := Command{
		Name: "op",
		Params: []Param{
			{Name: "count", Type: ParamInt, Required: true},
			{Name: "label", Type: ParamString, Default: "none"},
			{Name: "items", Type: ParamList, Default: []any{}},
		},
	}

	v, err := cmd.Bind(schemas.Args{{Key: "count", Value: 4.0}})
	require.NoError(t, err)
	assert.Equal(t, 4, v.Int("count"))
	assert.Equal(t, "none", v.String("label"))

	_, err = cmd.Bind(schemas.Args{{Key: "count", Value: 4.5}})
	var argErr *InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "count", argErr.Argument)

	_, err = cmd.Bind(schemas.Args{{Key: "count", Value: 1.0}, {Key: "color", Value: "red"}})
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "unexpected argument", argErr.Reason)

	_, err = cmd.Bind(nil)
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "missing required argument", argErr.Reason)

	_, err = cmd.Bind(schemas.Args{{Key: "count", Value: 1.0}, {Key: "items", Value: "a,b"}})
	assert.ErrorAs(t, err, &argErr)
}

func TestCommand_Signature(t *testing.T) {
	t.Parallel()
	cmd := Command{Name: "click", Params: []Param{
		{Name: "button", Type: ParamString, Default: "left"},
		{Name: "double", Type: ParamBool, Default: false},
	}}
	assert.Equal(t, `click(button: str = "left", double: bool = false)`, cmd.Signature())
}

func TestNewCommandSet_DuplicatePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		NewCommandSet("x", Command{Name: "a"}, Command{Name: "b", Aliases: []string{"a"}})
	})
}

// -- Control Receiver --

func TestControlReceiver_Click(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := &MockControl{name: "Open"}
	ctrl.On("Click", ctx, "left", false).Return(nil)
	ctrl.On("Click", ctx, "right", true).Return(nil)

	r := NewControlReceiver(ctrl)
	assert.Equal(t, "Open", r.Name())

	_, err := r.Execute(ctx, "click", nil)
	require.NoError(t, err)
	_, err = r.Execute(ctx, "click_input", schemas.Args{{Key: "button", Value: "right"}, {Key: "double", Value: true}})
	require.NoError(t, err)

	_, err = r.Execute(ctx, "click", schemas.Args{{Key: "button", Value: "side"}})
	var argErr *InvalidArgumentError
	assert.ErrorAs(t, err, &argErr)
	ctrl.AssertExpectations(t)
}

func TestControlReceiver_TextInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := &MockControl{name: "Body"}
	ctrl.On("SetText", ctx, "line1\nline2").Return(nil)
	ctrl.On("TypeKeys", ctx, "hello").Return(nil)

	r := NewControlReceiver(ctrl)
	_, err := r.Execute(ctx, "set_edit_text", schemas.Args{{Key: "text", Value: `line1\nline2`}})
	require.NoError(t, err)
	_, err = r.Execute(ctx, "keyboard_input", schemas.Args{{Key: "keys", Value: "hello"}, {Key: "control_focus", Value: false}})
	require.NoError(t, err)

	ctrl.AssertExpectations(t)
	ctrl.AssertNotCalled(t, "Click", ctx, "left", false)
}

func TestControlReceiver_KeyboardFocusFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := &MockControl{name: "Body"}
	ctrl.On("Click", ctx, "left", false).Return(errors.New("element detached"))

	_, err := NewControlReceiver(ctrl).Execute(ctx, "keyboard_input", schemas.Args{{Key: "keys", Value: "x"}})
	assert.EqualError(t, err, "element detached")
	ctrl.AssertNotCalled(t, "TypeKeys", ctx, "x")
}

func TestControlReceiver_WithoutControl(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewControlReceiver(nil)
	assert.Equal(t, "", r.Name())

	_, err := r.Execute(ctx, "click", nil)
	assert.ErrorIs(t, err, ErrNoControl)

	res, err := r.Execute(ctx, "summary", schemas.Args{{Key: "text", Value: "The file has 3 pages."}})
	require.NoError(t, err)
	assert.Equal(t, "The file has 3 pages.", res)
}

func TestControlReceiver_ScrollAndTexts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := &MockControl{name: "List"}
	ctrl.On("Scroll", ctx, -5).Return(nil)
	ctrl.On("Texts", ctx).Return([]string{"a", "b"}, nil)

	r := NewControlReceiver(ctrl)
	_, err := r.Execute(ctx, "wheel_mouse_input", schemas.Args{{Key: "wheel_dist", Value: -5.0}})
	require.NoError(t, err)
	texts, err := r.Execute(ctx, "texts", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
	ctrl.AssertExpectations(t)
}

func TestReviseLineBreaks(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a\nb\nc", ReviseLineBreaks(`a\nb\nc`))
	assert.Equal(t, "plain", ReviseLineBreaks("plain"))
}
