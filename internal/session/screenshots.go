// internal/session/screenshots.go
package session

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
)

// Screenshot kinds saved for every action step.
const (
	shotPlain     = ""
	shotAnnotated = "_annotated"
	shotConcat    = "_concat"
	shotSelected  = "_selected_controls"
)

// screenshotPath names the file of one step's screenshot, e.g.
// action_step3_annotated.png.
func screenshotPath(dir string, step int, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("action_step%d%s.png", step, kind))
}

func saveScreenshot(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save screenshot %s: %w", path, err)
	}
	return nil
}

// concatHorizontal places two PNG images side by side, top aligned.
func concatHorizontal(left, right []byte) ([]byte, error) {
	a, err := png.Decode(bytes.NewReader(left))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	b, err := png.Decode(bytes.NewReader(right))
	if err != nil {
		return nil, fmt.Errorf("failed to decode annotated screenshot: %w", err)
	}

	ab, bb := a.Bounds(), b.Bounds()
	height := ab.Dy()
	if bb.Dy() > height {
		height = bb.Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, ab.Dx()+bb.Dx(), height))
	draw.Draw(out, image.Rect(0, 0, ab.Dx(), ab.Dy()), a, ab.Min, draw.Src)
	draw.Draw(out, image.Rect(ab.Dx(), 0, ab.Dx()+bb.Dx(), bb.Dy()), b, bb.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode concatenated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
