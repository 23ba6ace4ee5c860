package mapengine

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// readPointer translates the cursor into hover/selection changes. The
// cursor outside the canvas counts as a leave.
func (e *Engine) readPointer() {
	mx, my := ebiten.CursorPosition()
	if mx < 0 || my < 0 || mx >= e.Width || my >= e.Height {
		e.handleLeave()
		return
	}
	x, y := float64(mx), float64(my)
	e.handleMove(x, y)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		e.handleClick(x, y)
	}
}

func (e *Engine) readKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		e.cycleFilter()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		e.showFeed = !e.showFeed
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		e.selectedID = ""
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		e.requestCapture()
	}
}
