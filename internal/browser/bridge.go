// internal/browser/bridge.go
package browser

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// Objects lists the open tabs as automation objects so the receiver factory
// can bind a browser receiver to the tab a window title names.
func (d *Driver) Objects(ctx context.Context, family string) ([]receiver.Object, error) {
	if family != receiver.BrowserFamily {
		return nil, fmt.Errorf("browser bridge cannot serve object family %q", family)
	}
	windows, err := d.Windows(ctx)
	if err != nil {
		return nil, err
	}
	objects := make([]receiver.Object, 0, len(windows))
	for _, w := range windows {
		objects = append(objects, w.(*Tab))
	}
	return objects, nil
}

var (
	_ schemas.Desktop          = (*Driver)(nil)
	_ schemas.ControlInventory = (*Driver)(nil)
	_ schemas.Photographer     = (*Driver)(nil)
	_ receiver.Bridge          = (*Driver)(nil)
	_ schemas.Window           = (*Tab)(nil)
	_ receiver.Object          = (*Tab)(nil)
	_ schemas.Control          = (*Element)(nil)
)
