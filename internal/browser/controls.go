// internal/browser/controls.go
package browser

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// idAttribute tags enumerated elements so later actions can find them again.
const idAttribute = "data-uipilot-id"

// enumerateScript lists the visible interactive elements of the viewport in
// document order and tags each with a fresh id.
const enumerateScript = `(() => {
  document.querySelectorAll('[` + idAttribute + `]').forEach(e => e.removeAttribute('` + idAttribute + `'));
  const sel = 'a[href],button,input,textarea,select,li,[contenteditable="true"],' +
    '[role=button],[role=link],[role=tab],[role=menuitem],[role=checkbox],[role=radio],[role=listitem],[role=option]';
  const out = [];
  let n = 0;
  for (const el of document.querySelectorAll(sel)) {
    const r = el.getBoundingClientRect();
    if (r.width < 1 || r.height < 1) continue;
    if (r.bottom < 0 || r.right < 0 || r.top > innerHeight || r.left > innerWidth) continue;
    const st = getComputedStyle(el);
    if (st.visibility === 'hidden' || st.display === 'none' || el.disabled) continue;
    const id = String(n++);
    el.setAttribute('` + idAttribute + `', id);
    const name = (el.getAttribute('aria-label') || el.innerText || el.value || el.getAttribute('placeholder') ||
      el.getAttribute('title') || el.getAttribute('alt') || '').trim().replace(/\s+/g, ' ').slice(0, 80);
    out.push({
      id: id,
      tag: el.tagName.toLowerCase(),
      role: (el.getAttribute('role') || '').toLowerCase(),
      inputType: (el.getAttribute('type') || '').toLowerCase(),
      editable: el.isContentEditable,
      name: name,
      x: r.left, y: r.top, width: r.width, height: r.height
    });
  }
  return out;
})()`

// rawElement is one entry returned by enumerateScript.
type rawElement struct {
	ID        string  `json:"id"`
	Tag       string  `json:"tag"`
	Role      string  `json:"role"`
	InputType string  `json:"inputType"`
	Editable  bool    `json:"editable"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

var roleTypes = map[string]string{
	"button":   "Button",
	"link":     "Hyperlink",
	"tab":      "TabItem",
	"menuitem": "MenuItem",
	"checkbox": "CheckBox",
	"radio":    "RadioButton",
	"listitem": "ListItem",
	"option":   "ListItem",
}

var tagTypes = map[string]string{
	"a":        "Hyperlink",
	"button":   "Button",
	"select":   "ComboBox",
	"textarea": "Edit",
	"li":       "ListItem",
}

// controlType maps an element to the desktop control vocabulary the agents
// are prompted with. An ARIA role wins over the tag.
func controlType(e rawElement) string {
	if t, ok := roleTypes[e.Role]; ok {
		return t
	}
	if e.Tag == "input" {
		switch e.InputType {
		case "checkbox":
			return "CheckBox"
		case "radio":
			return "RadioButton"
		case "submit", "button", "reset", "image":
			return "Button"
		default:
			return "Edit"
		}
	}
	if t, ok := tagTypes[e.Tag]; ok {
		return t
	}
	if e.Editable {
		return "Edit"
	}
	return "Custom"
}

// Controls enumerates the interactive elements of a tab, keeping only the
// given control types when any are listed.
func (d *Driver) Controls(ctx context.Context, w schemas.Window, controlTypes []string) ([]schemas.Control, error) {
	t, err := d.asTab(w)
	if err != nil {
		return nil, err
	}
	var raw []rawElement
	if err := d.run(ctx, t, chromedp.Evaluate(enumerateScript, &raw)); err != nil {
		return nil, fmt.Errorf("failed to enumerate controls of %q: %w", t.Title(), err)
	}
	return buildControls(t, raw, controlTypes), nil
}

func buildControls(t *Tab, raw []rawElement, controlTypes []string) []schemas.Control {
	keep := make(map[string]bool, len(controlTypes))
	for _, ct := range controlTypes {
		keep[strings.ToLower(ct)] = true
	}
	out := make([]schemas.Control, 0, len(raw))
	for _, e := range raw {
		ct := controlType(e)
		if len(keep) > 0 && !keep[strings.ToLower(ct)] {
			continue
		}
		out = append(out, &Element{
			tab:   t,
			id:    e.ID,
			name:  e.Name,
			ctype: ct,
			rect: image.Rect(
				int(math.Round(e.X)), int(math.Round(e.Y)),
				int(math.Round(e.X+e.Width)), int(math.Round(e.Y+e.Height)),
			),
		})
	}
	return out
}

// Element is an interactive page element. Its rectangle is in CSS pixels of
// the viewport at enumeration time.
type Element struct {
	tab   *Tab
	id    string
	name  string
	ctype string
	rect  image.Rectangle
}

func (e *Element) Name() string          { return e.name }
func (e *Element) ControlType() string   { return e.ctype }
func (e *Element) Rect() image.Rectangle { return e.rect }

func (e *Element) center() (float64, float64) {
	return float64(e.rect.Min.X+e.rect.Max.X) / 2, float64(e.rect.Min.Y+e.rect.Max.Y) / 2
}

func (e *Element) selector() string {
	return fmt.Sprintf(`[%s="%s"]`, idAttribute, e.id)
}

func (e *Element) Click(ctx context.Context, button string, double bool) error {
	x, y := e.center()
	count := 1
	if double {
		count = 2
	}
	err := e.tab.driver.run(ctx, e.tab, chromedp.MouseClickXY(x, y,
		chromedp.ButtonType(input.MouseButton(button)),
		chromedp.ClickCount(count),
	))
	if err != nil {
		return fmt.Errorf("failed to click %q: %w", e.name, err)
	}
	return nil
}

// SetText replaces the element's value and fires input and change events.
func (e *Element) SetText(ctx context.Context, text string) error {
	script := fmt.Sprintf(`((sel, text) => {
  const el = document.querySelector(sel);
  if (!el) return false;
  el.focus();
  if ('value' in el) { el.value = text; } else { el.textContent = text; }
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
  return true;
})(%s, %s)`, jsString(e.selector()), jsString(text))
	var ok bool
	if err := e.tab.driver.run(ctx, e.tab, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("failed to set text of %q: %w", e.name, err)
	}
	if !ok {
		return fmt.Errorf("control %q is no longer on the page", e.name)
	}
	return nil
}

// TypeKeys sends keystrokes to whatever currently has focus.
func (e *Element) TypeKeys(ctx context.Context, keys string) error {
	if err := e.tab.driver.run(ctx, e.tab, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("failed to type into %q: %w", e.name, err)
	}
	return nil
}

// Scroll turns the mouse wheel over the element. Positive distances scroll up.
func (e *Element) Scroll(ctx context.Context, wheelDist int) error {
	x, y := e.center()
	wheel := input.DispatchMouseEvent(input.MouseWheel, x, y).WithDeltaX(0).WithDeltaY(-float64(wheelDist) * 120)
	if err := e.tab.driver.run(ctx, e.tab, wheel); err != nil {
		return fmt.Errorf("failed to scroll %q: %w", e.name, err)
	}
	return nil
}

// Texts returns the non-empty lines of the element's rendered text or value.
func (e *Element) Texts(ctx context.Context) ([]string, error) {
	script := fmt.Sprintf(`((sel) => {
  const el = document.querySelector(sel);
  if (!el) return null;
  return el.innerText || el.value || '';
})(%s)`, jsString(e.selector()))
	var text *string
	if err := e.tab.driver.run(ctx, e.tab, chromedp.Evaluate(script, &text)); err != nil {
		return nil, fmt.Errorf("failed to read text of %q: %w", e.name, err)
	}
	if text == nil {
		return nil, fmt.Errorf("control %q is no longer on the page", e.name)
	}
	return splitLines(*text), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
