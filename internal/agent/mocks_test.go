package agent

import (
	"context"
	"image"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// -- Oracle Mock --

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Send(ctx context.Context, req schemas.GenerationRequest, channel string, allowFallback bool) (string, schemas.Cost, error) {
	args := m.Called(ctx, req, channel, allowFallback)
	return args.String(0), args.Get(1).(schemas.Cost), args.Error(2)
}

// -- Desktop Mocks --

type MockDesktop struct {
	mock.Mock
}

func (m *MockDesktop) Windows(ctx context.Context) ([]schemas.Window, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.Window), args.Error(1)
}

type fakeWindow struct {
	title    string
	root     string
	focusErr error
	focused  int
}

func (w *fakeWindow) Title() string   { return w.title }
func (w *fakeWindow) AppRoot() string { return w.root }
func (w *fakeWindow) Focus(context.Context) error {
	w.focused++
	return w.focusErr
}

type MockPhotographer struct {
	mock.Mock
}

func (m *MockPhotographer) Capture(ctx context.Context, w schemas.Window) ([]byte, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPhotographer) Annotate(ctx context.Context, w schemas.Window, labels []string, controls []schemas.Control) ([]byte, error) {
	args := m.Called(ctx, w, labels, controls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPhotographer) Highlight(ctx context.Context, w schemas.Window, controls []schemas.Control) ([]byte, error) {
	args := m.Called(ctx, w, controls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// fakeControl records the input it receives.
type fakeControl struct {
	mu     sync.Mutex
	name   string
	clicks []string
	typed  []string
}

func (c *fakeControl) Name() string                            { return c.name }
func (c *fakeControl) ControlType() string                     { return "Button" }
func (c *fakeControl) Rect() image.Rectangle                   { return image.Rect(0, 0, 10, 10) }
func (c *fakeControl) SetText(context.Context, string) error   { return nil }
func (c *fakeControl) Scroll(context.Context, int) error       { return nil }
func (c *fakeControl) Texts(context.Context) ([]string, error) { return []string{c.name}, nil }

func (c *fakeControl) Click(_ context.Context, button string, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks = append(c.clicks, button)
	return nil
}

func (c *fakeControl) TypeKeys(_ context.Context, keys string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typed = append(c.typed, keys)
	return nil
}

// -- Retrieval Mock --

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// -- Automation Bridge Fakes --

type fakeObject struct {
	name    string
	invoked []string
}

func (o *fakeObject) Name() string { return o.name }

func (o *fakeObject) Invoke(_ context.Context, method string, _ map[string]any) (any, error) {
	o.invoked = append(o.invoked, method)
	return method + " done", nil
}

type fakeBridge struct {
	objects []receiver.Object
	err     error
}

func (b *fakeBridge) Objects(context.Context, string) ([]receiver.Object, error) {
	return b.objects, b.err
}
