package raster

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to half-block cells on scr. Each terminal
// row shows two framebuffer rows: ▀ with the top pixel as foreground and
// the bottom pixel as background.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(col, topY)),
					Bg: cellColor(fb.GetPixel(col, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// cellColor maps transparent pixels to the terminal default color.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Screen is the part of a terminal a TerminalPresenter draws into.
// *uv.Terminal satisfies it.
type Screen interface {
	uv.Screen
	Display() error
}

// TerminalPresenter shows finished frames on a terminal screen.
type TerminalPresenter struct {
	scr Screen
}

// NewTerminalPresenter creates a presenter for scr.
func NewTerminalPresenter(scr Screen) *TerminalPresenter {
	return &TerminalPresenter{scr: scr}
}

// FramebufferSize returns the pixel size matching a terminal of the given
// cell size.
func FramebufferSize(cols, rows int) (width, height int) {
	return cols, rows * 2
}

// Present draws fb and flushes the changes to the terminal.
func (p *TerminalPresenter) Present(fb *Framebuffer) error {
	rows := (fb.Height + 1) / 2
	fb.Draw(p.scr, uv.Rect(0, 0, fb.Width, rows))
	return p.scr.Display()
}
