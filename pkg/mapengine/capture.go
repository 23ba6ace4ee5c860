package mapengine

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

// requestCapture arms a one-shot screenshot; the actual pixel read has to
// happen inside Draw, where the frame is complete.
func (e *Engine) requestCapture() {
	if e.CaptureDir == "" {
		return
	}
	e.capturePending = true
}

func (e *Engine) captureIfRequested(screen *ebiten.Image) {
	if !e.capturePending {
		return
	}
	e.capturePending = false

	if err := os.MkdirAll(e.CaptureDir, 0o755); err != nil {
		log.Printf("Error creating capture directory: %v", err)
		return
	}

	filename := fmt.Sprintf("terra-%s.png", e.now().Format("20060102-150405"))
	path := filepath.Join(e.CaptureDir, filename)

	// Copy the pixels out before handing off; the screen image is reused
	// next frame.
	bounds := screen.Bounds()
	rgba := image.NewRGBA(bounds)
	screen.ReadPixels(rgba.Pix)

	go func() {
		f, err := os.Create(path)
		if err != nil {
			log.Printf("Error creating capture file: %v", err)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Error closing capture file: %v", err)
			}
		}()

		if err := png.Encode(f, rgba); err != nil {
			log.Printf("Error encoding capture: %v", err)
			return
		}
		log.Printf("Captured frame: %s", path)
	}()
}
