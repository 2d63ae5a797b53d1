package experience

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Send(ctx context.Context, req schemas.GenerationRequest, channel string, allowFallback bool) (string, schemas.Cost, error) {
	args := m.Called(ctx, req, channel, allowFallback)
	return args.String(0), args.Get(1).(schemas.Cost), args.Error(2)
}
