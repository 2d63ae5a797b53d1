// File: internal/service/mocks_test.go
package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Send(ctx context.Context, req schemas.GenerationRequest, channel string, allowFallback bool) (string, schemas.Cost, error) {
	args := m.Called(ctx, req, channel, allowFallback)
	return args.String(0), args.Get(1).(schemas.Cost), args.Error(2)
}

func (m *MockOracle) Close() error {
	return m.Called().Error(0)
}

type MockDesktop struct {
	mock.Mock
}

func (m *MockDesktop) Windows(ctx context.Context) ([]schemas.Window, error) {
	args := m.Called(ctx)
	if w := args.Get(0); w != nil {
		return w.([]schemas.Window), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDesktop) Controls(ctx context.Context, w schemas.Window, controlTypes []string) ([]schemas.Control, error) {
	args := m.Called(ctx, w, controlTypes)
	if c := args.Get(0); c != nil {
		return c.([]schemas.Control), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDesktop) Capture(ctx context.Context, w schemas.Window) ([]byte, error) {
	args := m.Called(ctx, w)
	return bytesArg(args.Get(0)), args.Error(1)
}

func (m *MockDesktop) Annotate(ctx context.Context, w schemas.Window, labels []string, controls []schemas.Control) ([]byte, error) {
	args := m.Called(ctx, w, labels, controls)
	return bytesArg(args.Get(0)), args.Error(1)
}

func (m *MockDesktop) Highlight(ctx context.Context, w schemas.Window, controls []schemas.Control) ([]byte, error) {
	args := m.Called(ctx, w, controls)
	return bytesArg(args.Get(0)), args.Error(1)
}

func (m *MockDesktop) Objects(ctx context.Context, family string) ([]receiver.Object, error) {
	args := m.Called(ctx, family)
	if o := args.Get(0); o != nil {
		return o.([]receiver.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDesktop) Close() error {
	return m.Called().Error(0)
}

func bytesArg(v any) []byte {
	if b, ok := v.([]byte); ok {
		return b
	}
	return nil
}
