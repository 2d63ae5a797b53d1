package receiver

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

// -- Automation Mocks --

// MockObject mocks a live automation object.
type MockObject struct {
	mock.Mock
	name string
}

func NewMockObject(name string) *MockObject { return &MockObject{name: name} }

func (m *MockObject) Name() string { return m.name }

func (m *MockObject) Invoke(ctx context.Context, method string, args map[string]any) (any, error) {
	ret := m.Called(ctx, method, args)
	return ret.Get(0), ret.Error(1)
}

// MockBridge mocks an automation bridge.
type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) Objects(ctx context.Context, family string) ([]Object, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Object), args.Error(1)
}

// -- UI Control Mock --

// MockControl mocks schemas.Control.
type MockControl struct {
	mock.Mock
	name string
}

func (m *MockControl) Name() string          { return m.name }
func (m *MockControl) ControlType() string   { return "Button" }
func (m *MockControl) Rect() image.Rectangle { return image.Rect(0, 0, 10, 10) }

func (m *MockControl) Click(ctx context.Context, button string, double bool) error {
	return m.Called(ctx, button, double).Error(0)
}

func (m *MockControl) SetText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockControl) TypeKeys(ctx context.Context, keys string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockControl) Scroll(ctx context.Context, wheelDist int) error {
	return m.Called(ctx, wheelDist).Error(0)
}

func (m *MockControl) Texts(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
