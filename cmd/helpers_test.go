// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/receiver"
	"github.com/xkilldash9x/uipilot/internal/service"
)

// execute runs a pristine command tree with args and returns its output.
// A missing dotenv file keeps the developer's .env out of the test.
func execute(t *testing.T, factory service.ComponentFactory, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// recordingFactory captures what the run command asks for and fails.
type recordingFactory struct {
	cfg config.Interface
	req service.Request
}

var errRecorded = errors.New("recorded")

func (f *recordingFactory) Create(_ context.Context, cfg config.Interface, req service.Request, _ *zap.Logger) (*service.Components, error) {
	f.cfg, f.req = cfg, req
	return nil, errRecorded
}

// -- Backend Fakes --

type fakeOracle struct {
	closed bool
}

func (o *fakeOracle) Send(context.Context, schemas.GenerationRequest, string, bool) (string, schemas.Cost, error) {
	return "", schemas.UnknownCost(), errors.New("not expected")
}

func (o *fakeOracle) Close() error {
	o.closed = true
	return nil
}

// brokenDesktop cannot list windows; nothing else should be reached.
type brokenDesktop struct {
	closed bool
}

func (d *brokenDesktop) Windows(context.Context) ([]schemas.Window, error) {
	return nil, errors.New("no display")
}

func (d *brokenDesktop) Controls(context.Context, schemas.Window, []string) ([]schemas.Control, error) {
	return nil, nil
}

func (d *brokenDesktop) Capture(context.Context, schemas.Window) ([]byte, error) { return nil, nil }

func (d *brokenDesktop) Annotate(context.Context, schemas.Window, []string, []schemas.Control) ([]byte, error) {
	return nil, nil
}

func (d *brokenDesktop) Highlight(context.Context, schemas.Window, []schemas.Control) ([]byte, error) {
	return nil, nil
}

func (d *brokenDesktop) Objects(context.Context, string) ([]receiver.Object, error) { return nil, nil }

func (d *brokenDesktop) Close() error {
	d.closed = true
	return nil
}
