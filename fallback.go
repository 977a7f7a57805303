package kittyimg

import (
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/x/mosaic"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
	"golang.org/x/term"
)

// Renderers for terminals without Kitty graphics, meant to be used as fallbacks.

// Halfblocks draws img with unicode half blocks inside a cols x rows cell box.
// A zero box fits the image to the terminal behind w (80x24 if w is not one).
func Halfblocks(w io.Writer, img image.Image, cols, rows int) error {
	if cols <= 0 && rows <= 0 {
		cols, rows = terminalSize(w)
	}

	bounds := img.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())
	if cols > 0 && rows > 0 && srcW > 0 && srcH > 0 {
		// a cell holds two vertical pixels
		ratio := min(float64(cols)/srcW, float64(rows)*2/srcH)
		cols = max(int(srcW*ratio), 1)
		rows = max(int(srcH*ratio/2), 1)
	}

	m := mosaic.New()
	if cols > 0 {
		m = m.Width(cols)
	}
	if rows > 0 {
		m = m.Height(rows)
	}

	if _, err := io.WriteString(w, m.Render(img)+"\n"); err != nil {
		return fmt.Errorf("failed to write halfblocks: %w", err)
	}
	return nil
}

func terminalSize(w io.Writer) (int, int) {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if cols, rows, err := term.GetSize(int(f.Fd())); err == nil {
			return cols, rows
		}
	}
	return 80, 24
}

// Sixel draws img as a sixel image reduced to at most colors colors
func Sixel(w io.Writer, img image.Image, colors int) error {
	if colors <= 1 || colors > 255 {
		colors = 255
	}

	// median cut palette, then Stucki error diffusion
	palette := median.Quantizer(colors).Palette(img).ColorPalette()
	if ditherer := dither.NewDitherer(palette); ditherer != nil {
		ditherer.Matrix = dither.Stucki
		if out := ditherer.Dither(img); out != nil {
			img = out
		}
	}

	enc := sixel.NewEncoder(w)
	enc.Dither = false
	enc.Colors = colors
	if err := enc.Encode(img); err != nil {
		return fmt.Errorf("failed to encode sixel: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write sixel: %w", err)
	}
	return nil
}
