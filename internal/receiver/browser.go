// internal/receiver/browser.go
package receiver

import (
	"context"
	"net/url"
)

// BrowserFamily is the object family of DevTools page targets.
const BrowserFamily = "chrome.tab"

// NewBrowserReceiver binds the browser command set to a tab.
func NewBrowserReceiver(entry Entry, obj Object) Receiver {
	r := &bound{entry: entry, obj: obj}
	invoke := func(method string) Handler {
		return func(ctx context.Context, _ Values) (any, error) {
			return obj.Invoke(ctx, method, nil)
		}
	}
	r.CommandSet = NewCommandSet("browser",
		Command{
			Name:    "navigate",
			Summary: "Open an absolute URL in the current tab.",
			Params:  []Param{{Name: "url", Type: ParamString, Required: true}},
			Run: func(ctx context.Context, args Values) (any, error) {
				u, err := url.Parse(args.String("url"))
				if err != nil || u.Scheme == "" {
					return nil, &InvalidArgumentError{Operation: "navigate", Argument: "url", Reason: "must be an absolute URL"}
				}
				return obj.Invoke(ctx, "Navigate", map[string]any{"url": u.String()})
			},
		},
		Command{Name: "go_back", Summary: "Go back one entry in the tab history.", Run: invoke("GoBack")},
		Command{Name: "reload", Summary: "Reload the current page.", Run: invoke("Reload")},
		Command{Name: "get_url", Summary: "Return the URL of the current page.", Run: invoke("URL")},
		Command{Name: "get_title", Summary: "Return the title of the current page.", Run: invoke("Title")},
		Command{
			Name:    "run_script",
			Summary: "Evaluate a JavaScript expression in the page and return its JSON value.",
			Params:  []Param{{Name: "script", Type: ParamString, Required: true}},
			Run: func(ctx context.Context, args Values) (any, error) {
				return obj.Invoke(ctx, "Evaluate", map[string]any{"script": args.String("script")})
			},
		},
	)
	return r
}
