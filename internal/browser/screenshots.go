// internal/browser/screenshots.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

const overlayID = "uipilot-overlay"

// overlayItem is one box drawn over the page before a screenshot.
type overlayItem struct {
	Label  string `json:"label"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
}

// overlayItems pairs labels with control rectangles. Missing labels draw an
// unlabelled box.
func overlayItems(labels []string, controls []schemas.Control) []overlayItem {
	items := make([]overlayItem, 0, len(controls))
	for i, c := range controls {
		r := c.Rect()
		item := overlayItem{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		if i < len(labels) {
			item.Label = labels[i]
		}
		items = append(items, item)
	}
	return items
}

// overlayScript draws the boxes in a fixed, click-through layer. Labelled
// boxes are blue; outlines are red.
func overlayScript(items []overlayItem, outline bool) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode overlay: %w", err)
	}
	return fmt.Sprintf(`((items, outline) => {
  const old = document.getElementById('%[1]s');
  if (old) old.remove();
  const root = document.createElement('div');
  root.id = '%[1]s';
  root.style.cssText = 'position:fixed;left:0;top:0;width:0;height:0;z-index:2147483647;pointer-events:none';
  const color = outline ? '#d00' : '#0050d0';
  for (const it of items) {
    const box = document.createElement('div');
    box.style.cssText = 'position:fixed;box-sizing:border-box;border:2px solid ' + color +
      ';left:' + it.x + 'px;top:' + it.y + 'px;width:' + it.w + 'px;height:' + it.h + 'px';
    if (it.label) {
      const tag = document.createElement('span');
      tag.textContent = it.label;
      tag.style.cssText = 'position:absolute;left:0;top:0;padding:0 3px;font:bold 12px sans-serif;color:#fff;background:' + color;
      box.appendChild(tag);
    }
    root.appendChild(box);
  }
  document.documentElement.appendChild(root);
  return items.length;
})(%[2]s, %[3]t)`, overlayID, data, outline), nil
}

const removeOverlayScript = `(() => { const el = document.getElementById('` + overlayID + `'); if (el) el.remove(); return true; })()`

// Capture screenshots the tab's viewport. A nil window captures the first tab.
func (d *Driver) Capture(ctx context.Context, w schemas.Window) ([]byte, error) {
	t, err := d.resolveTab(ctx, w)
	if err != nil {
		return nil, err
	}
	var buf []byte
	if err := d.run(ctx, t, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture %q: %w", t.Title(), err)
	}
	return buf, nil
}

// Annotate screenshots the tab with each control boxed and labelled.
func (d *Driver) Annotate(ctx context.Context, w schemas.Window, labels []string, controls []schemas.Control) ([]byte, error) {
	return d.captureWithOverlay(ctx, w, overlayItems(labels, controls), false)
}

// Highlight screenshots the tab with the given controls outlined.
func (d *Driver) Highlight(ctx context.Context, w schemas.Window, controls []schemas.Control) ([]byte, error) {
	return d.captureWithOverlay(ctx, w, overlayItems(nil, controls), true)
}

func (d *Driver) captureWithOverlay(ctx context.Context, w schemas.Window, items []overlayItem, outline bool) ([]byte, error) {
	t, err := d.resolveTab(ctx, w)
	if err != nil {
		return nil, err
	}
	script, err := overlayScript(items, outline)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The page must not keep the overlay even when ctx is already done.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var ok bool
		if err := d.run(cleanupCtx, t, chromedp.Evaluate(removeOverlayScript, &ok)); err != nil {
			d.logger.Warn("Failed to remove screenshot overlay.", zap.Error(err))
		}
	}()

	var drawn int
	var buf []byte
	if err := d.run(ctx, t, chromedp.Evaluate(script, &drawn), chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture annotated %q: %w", t.Title(), err)
	}
	return buf, nil
}

func (d *Driver) resolveTab(ctx context.Context, w schemas.Window) (*Tab, error) {
	if w != nil {
		return d.asTab(w)
	}
	windows, err := d.Windows(ctx)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("browser has no open tabs")
	}
	return windows[0].(*Tab), nil
}
