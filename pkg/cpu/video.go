package cpu

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"gochip8/pkg/grid"
)

const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Framebuffer is the 64x32 monochrome display, one bool per pixel in
// row-major order.
type Framebuffer struct {
	Pixels [DisplayWidth * DisplayHeight]bool
}

// Palette maps lit and unlit pixels to colors for rendering.
type Palette struct {
	On  color.RGBA
	Off color.RGBA
}

var DefaultPalette = Palette{
	On:  color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
	Off: color.RGBA{0x00, 0x00, 0x00, 0xFF},
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates wrap.
func (f *Framebuffer) Pixel(x, y int) bool {
	return f.Pixels[grid.Index(wrap(x, DisplayWidth), wrap(y, DisplayHeight), DisplayWidth)]
}

// Clear turns every pixel off and reports whether any pixel was lit.
func (f *Framebuffer) Clear() bool {
	changed := false
	for i, lit := range f.Pixels {
		if lit {
			changed = true
			f.Pixels[i] = false
		}
	}
	return changed
}

// DrawSprite XORs the sprite rows onto the display with its top-left corner
// at (x, y). Each row byte is 8 pixels, most significant bit first, and both
// axes wrap around the screen edges. collision is set when a lit pixel is
// turned off; changed when any pixel flips.
func (f *Framebuffer) DrawSprite(x, y int, rows []byte) (collision, changed bool) {
	for i, row := range rows {
		py := wrap(y+i, DisplayHeight)
		for j := 0; j < 8; j++ {
			if row&(0x80>>j) == 0 {
				continue
			}
			idx := grid.Index(wrap(x+j, DisplayWidth), py, DisplayWidth)
			if f.Pixels[idx] {
				collision = true
			}
			f.Pixels[idx] = !f.Pixels[idx]
			changed = true
		}
	}
	return collision, changed
}

// LitCount returns the number of lit pixels.
func (f *Framebuffer) LitCount() int {
	n := 0
	for _, lit := range f.Pixels {
		if lit {
			n++
		}
	}
	return n
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// RGBA decodes the display into a 64x32 RGBA8888 byte slice
// (length 64*32*4).
func (f *Framebuffer) RGBA(p Palette) []byte {
	pixels := make([]byte, DisplayWidth*DisplayHeight*4)
	for i, lit := range f.Pixels {
		c := p.Off
		if lit {
			c = p.On
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the display as an *image.RGBA, scaled up by scale.
func (f *Framebuffer) Image(p Palette, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, DisplayWidth*scale, DisplayHeight*scale))
	for i, lit := range f.Pixels {
		c := p.Off
		if lit {
			c = p.On
		}
		x, y := grid.GetGridCoords(i, DisplayWidth)
		for dy := 0; dy < scale; dy++ {
			for dx := 0; dx < scale; dx++ {
				img.SetRGBA(x*scale+dx, y*scale+dy, c)
			}
		}
	}
	return img
}

// SaveScreenshot encodes the display as a PNG and writes it to filename.
func (f *Framebuffer) SaveScreenshot(filename string, p Palette, scale int) error {
	img := f.Image(p, scale)
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
