// File: internal/service/factory_test.go
package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/session"
)

// testConfig keeps every file the task touches inside a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.SessionCfg.LogRoot = filepath.Join(dir, "logs")
	cfg.SessionCfg.ErrorCooldown = 0
	cfg.ExperienceCfg.SavePath = filepath.Join(dir, "experience.yaml")
	cfg.ExperienceCfg.DemonstrationPath = filepath.Join(dir, "demonstration.yaml")
	cfg.ExperienceCfg.DocsPath = filepath.Join(dir, "docs.yaml")
	return cfg
}

func fakeFactory(oracle *MockOracle, desktop *MockDesktop, desktopErr error) ComponentFactory {
	return NewComponentFactory(
		WithOracleConstructor(func(context.Context, config.AgentConfig, *zap.Logger) (Oracle, error) {
			return oracle, nil
		}),
		WithDesktopConstructor(func(context.Context, config.BrowserConfig, *zap.Logger) (Desktop, error) {
			if desktopErr != nil {
				return nil, desktopErr
			}
			return desktop, nil
		}),
	)
}

func TestCreate_WiresTask(t *testing.T) {
	oracle, desktop := new(MockOracle), new(MockDesktop)
	oracle.On("Close").Return(nil).Once()
	desktop.On("Close").Return(nil).Once()
	cfg := testConfig(t)

	components, err := fakeFactory(oracle, desktop, nil).Create(context.Background(), cfg,
		Request{TaskID: "task-7", Request: "open the inbox", In: strings.NewReader(""), Out: &strings.Builder{}},
		zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "task-7", components.Controller.TaskID())
	assert.Equal(t, "open the inbox", components.Controller.Request())
	assert.Equal(t, schemas.StatusAppSelection, components.Controller.Status())
	assert.DirExists(t, filepath.Join(cfg.SessionCfg.LogRoot, "task-7"))
	assert.NotNil(t, components.Host)
	assert.NotNil(t, components.Summarizer)
	assert.NotNil(t, components.Stores.Experience)
	assert.Nil(t, components.Retrievers.Experience, "retrieval is off by default")
	assert.Nil(t, components.Stores.Docs)

	_, ok := components.Factory.Registry().Lookup("chrome.exe")
	assert.True(t, ok)

	components.Shutdown()
	oracle.AssertExpectations(t)
	desktop.AssertExpectations(t)
}

func TestCreate_RunFailsWithoutWindows(t *testing.T) {
	oracle, desktop := new(MockOracle), new(MockDesktop)
	oracle.On("Close").Return(nil)
	desktop.On("Close").Return(nil)
	desktop.On("Windows", mock.Anything).Return(nil, errors.New("no display"))

	components, err := fakeFactory(oracle, desktop, nil).Create(context.Background(), testConfig(t),
		Request{TaskID: "task-8", Request: "open the inbox", In: strings.NewReader(""), Out: &strings.Builder{}},
		zaptest.NewLogger(t))
	require.NoError(t, err)
	defer components.Shutdown()

	err = components.Run(context.Background())
	assert.ErrorIs(t, err, session.ErrStepFailed)
	assert.ErrorContains(t, err, "no display")
	oracle.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	data, err := os.ReadFile(filepath.Join(components.Controller.LogDir(), observability.ResponseLogName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "no display")
}

func TestComponents_RunRetriesFailedStep(t *testing.T) {
	oracle, desktop := new(MockOracle), new(MockDesktop)
	oracle.On("Close").Return(nil)
	desktop.On("Close").Return(nil)
	desktop.On("Windows", mock.Anything).Return(nil, errors.New("no display"))
	var out strings.Builder

	components, err := fakeFactory(oracle, desktop, nil).Create(context.Background(), testConfig(t),
		Request{TaskID: "task-9", Request: "open the inbox", In: strings.NewReader("y\nn\n"), Out: &out},
		zaptest.NewLogger(t))
	require.NoError(t, err)
	defer components.Shutdown()

	err = components.Run(context.Background())
	assert.ErrorIs(t, err, session.ErrStepFailed)
	desktop.AssertNumberOfCalls(t, "Windows", 2)
	assert.Equal(t, 2, strings.Count(out.String(), "Do you want to retry it?"))

	// Drain so the reader goroutine exits.
	_, err = components.Prompter.ReadLine(context.Background(), "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestCreate_PromptsForRequest(t *testing.T) {
	oracle, desktop := new(MockOracle), new(MockDesktop)
	oracle.On("Close").Return(nil)
	desktop.On("Close").Return(nil)
	var out strings.Builder

	components, err := fakeFactory(oracle, desktop, nil).Create(context.Background(), testConfig(t),
		Request{In: strings.NewReader("\n   \nsend the report\n"), Out: &out}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer components.Shutdown()

	assert.Equal(t, "send the report", components.Controller.Request())
	assert.Equal(t, 3, strings.Count(out.String(), firstRequestPrompt))

	// Drain so the reader goroutine exits.
	_, err = components.Prompter.ReadLine(context.Background(), "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestCreate_NoRequestEntered(t *testing.T) {
	oracle, desktop := new(MockOracle), new(MockDesktop)
	oracle.On("Close").Return(nil).Once()
	desktop.On("Close").Return(nil).Once()

	_, err := fakeFactory(oracle, desktop, nil).Create(context.Background(), testConfig(t),
		Request{In: strings.NewReader(""), Out: io.Discard}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoRequest)
	oracle.AssertExpectations(t)
	desktop.AssertExpectations(t)
}

func TestCreate_ValidationErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	t.Run("MissingRegistryFile", func(t *testing.T) {
		oracle := new(MockOracle)
		cfg := testConfig(t)
		cfg.ReceiversCfg.RegistryFile = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := fakeFactory(oracle, new(MockDesktop), nil).Create(ctx, cfg, Request{}, logger)
		assert.ErrorContains(t, err, "failed to initialize receiver registry")
		oracle.AssertNotCalled(t, "Close")
	})

	t.Run("MalformedExperienceStore", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.ExperienceCfg.SavePath, []byte("- [unterminated"), 0o644))

		_, err := fakeFactory(new(MockOracle), new(MockDesktop), nil).Create(ctx, cfg, Request{}, logger)
		assert.ErrorContains(t, err, "failed to open experience store")
	})

	t.Run("DesktopFailureClosesOracle", func(t *testing.T) {
		oracle := new(MockOracle)
		oracle.On("Close").Return(nil).Once()

		_, err := fakeFactory(oracle, nil, errors.New("chrome not found")).Create(ctx, testConfig(t), Request{}, logger)
		assert.ErrorContains(t, err, "chrome not found")
		oracle.AssertExpectations(t)
	})

	t.Run("UnknownPrimaryModel", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.AgentCfg.LLM.Primary = "nope"

		_, err := NewComponentFactory().Create(ctx, cfg, Request{}, logger)
		assert.ErrorContains(t, err, `primary model "nope" is not configured`)
	})
}

func TestComponents_ShutdownPartial(t *testing.T) {
	desktop := new(MockDesktop)
	desktop.On("Close").Return(errors.New("already gone")).Once()

	assert.NotPanics(t, func() {
		(&Components{Desktop: desktop}).Shutdown()
		(&Components{}).Shutdown()
	})
	desktop.AssertExpectations(t)
}
