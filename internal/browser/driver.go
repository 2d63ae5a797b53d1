// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

const (
	defaultOpTimeout    = 30 * time.Second
	shutdownGracePeriod = 10 * time.Second
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("browser driver is closed")

// Driver exposes the page tabs of one Chrome instance as desktop windows. It
// implements schemas.Desktop, schemas.ControlInventory, schemas.Photographer
// and receiver.Bridge over the DevTools protocol.
type Driver struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	mu     sync.Mutex
	tabs   map[target.ID]*Tab
	closed bool
}

// AllocatorOptions builds the launch flags for a locally started browser.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("hide-scrollbars", false),
		chromedp.Flag("mute-audio", false),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 800),
	)
	for _, arg := range cfg.Args {
		name, value := splitFlag(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// splitFlag turns "--name=value" into a chromedp flag; a bare "--name" is true.
func splitFlag(arg string) (string, any) {
	for len(arg) > 0 && arg[0] == '-' {
		arg = arg[1:]
	}
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:]
		}
	}
	return arg, true
}

// NewDriver connects to cfg.RemoteURL, or launches a browser on StartURL when
// no remote endpoint is configured.
func NewDriver(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Driver, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOpTimeout
	}
	d := &Driver{
		logger: logger.Named("browser"),
		cfg:    cfg,
		tabs:   make(map[target.ID]*Tab),
	}

	if cfg.RemoteURL != "" {
		d.allocCtx, d.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(context.Background(), AllocatorOptions(cfg)...)
	}
	d.browserCtx, d.browserStop = chromedp.NewContext(d.allocCtx,
		chromedp.WithLogf(d.logger.Sugar().Debugf),
		chromedp.WithErrorf(d.logger.Sugar().Warnf),
	)

	connectCtx, cancel := combineContext(d.browserCtx, ctx)
	defer cancel()
	var err error
	if cfg.RemoteURL != "" {
		// Targets connects without opening a tab of its own.
		_, err = chromedp.Targets(connectCtx)
	} else {
		err = chromedp.Run(connectCtx, chromedp.Navigate(startURL(cfg)))
	}
	if err != nil {
		d.browserStop()
		d.allocCancel()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	d.logger.Info("Browser driver ready.", zap.String("remote_url", cfg.RemoteURL), zap.Bool("headless", cfg.Headless))
	return d, nil
}

func startURL(cfg config.BrowserConfig) string {
	if cfg.StartURL == "" {
		return "about:blank"
	}
	return cfg.StartURL
}

// Close detaches from every tab and releases the browser. A launched browser
// is shut down; tabs the driver attached to are closed with it.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	tabs := d.tabs
	d.tabs = nil
	d.mu.Unlock()

	for _, t := range tabs {
		t.cancel()
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(d.browserCtx) }()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("Browser did not shut down cleanly.", zap.Error(err))
		}
	case <-time.After(shutdownGracePeriod):
		d.logger.Warn("Browser shutdown timed out.", zap.Duration("grace_period", shutdownGracePeriod))
	}
	d.browserStop()
	d.allocCancel()
	return nil
}

// Windows lists the open page tabs. The launched start tab is included.
func (d *Driver) Windows(ctx context.Context) ([]schemas.Window, error) {
	infos, err := d.pages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schemas.Window, 0, len(infos))
	for _, info := range infos {
		out = append(out, d.tab(info))
	}
	return out, nil
}

func (d *Driver) pages(ctx context.Context) ([]*target.Info, error) {
	if d.isClosed() {
		return nil, ErrClosed
	}
	opCtx, cancel := combineContext(d.browserCtx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(opCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list browser targets: %w", err)
	}
	pages := infos[:0]
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages, nil
}

// tab returns the Tab for info, attaching lazily on first use. Titles are
// refreshed on every listing.
func (d *Driver) tab(info *target.Info) *Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tabs[info.TargetID]; ok {
		t.setInfo(info.Title, info.URL)
		return t
	}
	t := &Tab{driver: d, id: info.TargetID, title: info.Title, url: info.URL}
	if d.isFirstTab(info.TargetID) {
		t.ctx, t.cancel = d.browserCtx, func() {}
	} else {
		t.ctx, t.cancel = chromedp.NewContext(d.browserCtx, chromedp.WithTargetID(info.TargetID))
	}
	if d.tabs != nil {
		d.tabs[info.TargetID] = t
	}
	return t
}

// isFirstTab reports whether id is the tab the launched browser opened.
func (d *Driver) isFirstTab(id target.ID) bool {
	c := chromedp.FromContext(d.browserCtx)
	return c != nil && c.Target != nil && c.Target.TargetID == id
}

func (d *Driver) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// run executes actions in a tab, bounded by ctx and the configured timeout.
func (d *Driver) run(ctx context.Context, t *Tab, actions ...chromedp.Action) error {
	if d.isClosed() {
		return ErrClosed
	}
	opCtx, cancel := combineContext(t.ctx, ctx)
	defer cancel()
	opCtx, timeoutCancel := context.WithTimeout(opCtx, d.cfg.Timeout)
	defer timeoutCancel()
	return chromedp.Run(opCtx, actions...)
}

// combineContext derives a context from base, which carries the chromedp
// state, that is also cancelled when op is.
func combineContext(base, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(op, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// asTab unwraps a window produced by this driver.
func (d *Driver) asTab(w schemas.Window) (*Tab, error) {
	t, ok := w.(*Tab)
	if !ok || t.driver != d {
		return nil, fmt.Errorf("window %T does not belong to this browser", w)
	}
	return t, nil
}
