// internal/browser/tab.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Tab is one browser page. It is both a desktop window and the automation
// object the browser receiver binds to.
type Tab struct {
	driver *Driver
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	title string
	url   string
}

func (t *Tab) setInfo(title, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title, t.url = title, url
}

// Title is the page title, which is what the tab strip shows.
func (t *Tab) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// AppRoot is the configured executable name of the browser.
func (t *Tab) AppRoot() string { return t.driver.cfg.AppRoot }

// Name is the title, used to match a tab against a window's display name.
func (t *Tab) Name() string { return t.Title() }

// Focus brings the tab to the front.
func (t *Tab) Focus(ctx context.Context) error {
	if err := t.driver.run(ctx, t, page.BringToFront()); err != nil {
		return fmt.Errorf("failed to focus tab %q: %w", t.Title(), err)
	}
	return nil
}

// Invoke runs one browser object method: Navigate, GoBack, Reload, URL, Title
// or Evaluate.
func (t *Tab) Invoke(ctx context.Context, method string, args map[string]any) (any, error) {
	t.driver.logger.Debug("Invoking tab method.", zap.String("method", method), zap.String("tab", t.Title()))
	switch method {
	case "Navigate":
		u, _ := args["url"].(string)
		if u == "" {
			return nil, errors.New("navigate requires a url")
		}
		if err := t.driver.run(ctx, t, chromedp.Navigate(u)); err != nil {
			return nil, fmt.Errorf("navigation to %s failed: %w", u, err)
		}
		t.refresh(ctx)
		return "", nil
	case "GoBack":
		if err := t.driver.run(ctx, t, chromedp.NavigateBack()); err != nil {
			return nil, fmt.Errorf("navigating back failed: %w", err)
		}
		t.refresh(ctx)
		return "", nil
	case "Reload":
		if err := t.driver.run(ctx, t, chromedp.Reload()); err != nil {
			return nil, fmt.Errorf("reload failed: %w", err)
		}
		return "", nil
	case "URL":
		var loc string
		if err := t.driver.run(ctx, t, chromedp.Location(&loc)); err != nil {
			return nil, err
		}
		return loc, nil
	case "Title":
		var title string
		if err := t.driver.run(ctx, t, chromedp.Title(&title)); err != nil {
			return nil, err
		}
		t.setInfo(title, t.url)
		return title, nil
	case "Evaluate":
		script, _ := args["script"].(string)
		var res any
		if err := t.driver.run(ctx, t, chromedp.Evaluate(script, &res)); err != nil {
			return nil, fmt.Errorf("script evaluation failed: %w", err)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("tab has no method %q", method)
	}
}

// refresh re-reads the title and URL after a navigation. It is best effort.
func (t *Tab) refresh(ctx context.Context) {
	var title, loc string
	if err := t.driver.run(ctx, t, chromedp.Title(&title), chromedp.Location(&loc)); err != nil {
		t.driver.logger.Debug("Failed to refresh tab info.", zap.Error(err))
		return
	}
	t.setInfo(title, loc)
}
