package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// -- Agent and Oracle Mocks --

type MockHost struct {
	mock.Mock
}

func (m *MockHost) SelectApplication(ctx context.Context, req agent.HostRequest) (agent.Selection, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(agent.Selection), args.Error(1)
}

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Send(ctx context.Context, req schemas.GenerationRequest, channel string, allowFallback bool) (string, schemas.Cost, error) {
	args := m.Called(ctx, req, channel, allowFallback)
	return args.String(0), args.Get(1).(schemas.Cost), args.Error(2)
}

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, responseLog string, requests []string) (schemas.Cost, error) {
	args := m.Called(ctx, responseLog, requests)
	return args.Get(0).(schemas.Cost), args.Error(1)
}

// -- Prompter Fake --

// fakePrompter answers confirmations and request prompts from scripted queues.
// An exhausted line queue behaves like closed input.
type fakePrompter struct {
	mu        sync.Mutex
	confirms  []bool
	lines     []string
	questions []string
	notices   []string
}

func (p *fakePrompter) Confirm(_ context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, question)
	if len(p.confirms) == 0 {
		return false, io.EOF
	}
	ok := p.confirms[0]
	p.confirms = p.confirms[1:]
	return ok, nil
}

func (p *fakePrompter) ReadLine(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *fakePrompter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, message)
}

// -- Desktop Fakes --

type fakeWindow struct {
	title string
	root  string
}

func (w *fakeWindow) Title() string               { return w.title }
func (w *fakeWindow) AppRoot() string             { return w.root }
func (w *fakeWindow) Focus(context.Context) error { return nil }

type fakeControl struct {
	mu     sync.Mutex
	name   string
	clicks int
}

func (c *fakeControl) Name() string                            { return c.name }
func (c *fakeControl) ControlType() string                     { return "ListItem" }
func (c *fakeControl) Rect() image.Rectangle                   { return image.Rect(0, 0, 4, 4) }
func (c *fakeControl) SetText(context.Context, string) error   { return nil }
func (c *fakeControl) TypeKeys(context.Context, string) error  { return nil }
func (c *fakeControl) Scroll(context.Context, int) error       { return nil }
func (c *fakeControl) Texts(context.Context) ([]string, error) { return []string{c.name}, nil }

func (c *fakeControl) Click(context.Context, string, bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks++
	return nil
}

func (c *fakeControl) Clicks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clicks
}

type fakeInventory struct {
	controls []schemas.Control
	err      error
	calls    int
}

func (i *fakeInventory) Controls(context.Context, schemas.Window, []string) ([]schemas.Control, error) {
	i.calls++
	return i.controls, i.err
}

// fakePhotographer returns small solid PNG images.
type fakePhotographer struct {
	annotated [][]string
}

func (p *fakePhotographer) Capture(context.Context, schemas.Window) ([]byte, error) {
	return solidPNG(4, 3, color.White), nil
}

func (p *fakePhotographer) Annotate(_ context.Context, _ schemas.Window, labels []string, _ []schemas.Control) ([]byte, error) {
	p.annotated = append(p.annotated, labels)
	return solidPNG(2, 5, color.Black), nil
}

func (p *fakePhotographer) Highlight(context.Context, schemas.Window, []schemas.Control) ([]byte, error) {
	return solidPNG(4, 3, color.Gray{Y: 128}), nil
}

func solidPNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// -- Automation Bridge Fakes --

type fakeObject struct {
	name string
}

func (o *fakeObject) Name() string { return o.name }

func (o *fakeObject) Invoke(context.Context, string, map[string]any) (any, error) {
	return nil, nil
}

type fakeBridge struct {
	objects []receiver.Object
}

func (b *fakeBridge) Objects(context.Context, string) ([]receiver.Object, error) {
	return b.objects, nil
}

// -- Sleep Recorder --

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}
