package cpu

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// drawProgram points I at sprite data at 0x300 and draws it at (V0, V1).
func drawProgram(t *testing.T, c *CPU, x, y byte, sprite ...byte) {
	t.Helper()
	c.V[0] = x
	c.V[1] = y
	copy(c.Memory[0x300:], sprite)
	loadProgram(t, c,
		0xA300,
		Encode(OpDRW, 0, 1, uint16(len(sprite))),
		Encode(OpDRW, 0, 1, uint16(len(sprite))),
	)
}

func TestDrawTwiceRestores(t *testing.T) {
	c, _ := newTestCPU()
	// A pre-existing lit pixel inside the sprite area.
	c.Display.Pixels[10*DisplayWidth+21] = true
	before := c.Display

	drawProgram(t, c, 20, 10, 0xF0, 0x90, 0xF0)
	step(t, c, 1)

	redraw, err := c.Cycle(Keypad{})
	if err != nil {
		t.Fatal(err)
	}
	if !redraw {
		t.Error("first draw should report a change")
	}
	if c.V[RegFlag] != 1 {
		t.Errorf("first draw over a lit pixel: expected VF=1, got %d", c.V[RegFlag])
	}
	if c.Display.Pixel(21, 10) {
		t.Error("XOR should have turned (21,10) off")
	}
	if !c.Display.Pixel(20, 10) || !c.Display.Pixel(23, 12) || c.Display.Pixel(21, 11) {
		t.Error("sprite rows not drawn as expected")
	}

	redraw, err = c.Cycle(Keypad{})
	if err != nil {
		t.Fatal(err)
	}
	if !redraw {
		t.Error("second draw should report a change")
	}
	if c.V[RegFlag] != 1 {
		t.Errorf("second draw erases the first: expected VF=1, got %d", c.V[RegFlag])
	}
	if c.Display != before {
		t.Error("drawing the same sprite twice should restore the display")
	}
}

func TestDrawNoCollision(t *testing.T) {
	c, _ := newTestCPU()
	drawProgram(t, c, 0, 0, 0x80)
	step(t, c, 2)
	if c.V[RegFlag] != 0 {
		t.Errorf("draw on blank screen: expected VF=0, got %d", c.V[RegFlag])
	}
	if c.Display.LitCount() != 1 || !c.Display.Pixel(0, 0) {
		t.Errorf("expected single lit pixel at (0,0), got %d lit", c.Display.LitCount())
	}
}

func TestDrawWrapsColumns(t *testing.T) {
	c, _ := newTestCPU()
	drawProgram(t, c, 63, 0, 0xC0)
	step(t, c, 2)
	if !c.Display.Pixel(63, 0) {
		t.Error("first column pixel should be at x=63")
	}
	if !c.Display.Pixel(0, 0) {
		t.Error("second column pixel should wrap to x=0")
	}
	if c.Display.LitCount() != 2 {
		t.Errorf("expected 2 lit pixels, got %d", c.Display.LitCount())
	}
}

func TestDrawWrapsRows(t *testing.T) {
	c, _ := newTestCPU()
	drawProgram(t, c, 5, 31, 0x80, 0x80, 0x80)
	step(t, c, 2)
	for _, y := range []int{31, 0, 1} {
		if !c.Display.Pixel(5, y) {
			t.Errorf("expected lit pixel at (5,%d)", y)
		}
	}
}

func TestDrawStartCoordinatesWrap(t *testing.T) {
	c, _ := newTestCPU()
	drawProgram(t, c, 64+3, 32+2, 0x80)
	step(t, c, 2)
	if !c.Display.Pixel(3, 2) {
		t.Error("start coordinates should wrap modulo the display size")
	}
}

func TestDrawBlankSpriteReportsNoChange(t *testing.T) {
	c, _ := newTestCPU()
	drawProgram(t, c, 0, 0, 0x00, 0x00)
	step(t, c, 1)
	redraw, err := c.Cycle(Keypad{})
	if err != nil {
		t.Fatal(err)
	}
	if redraw {
		t.Error("a blank sprite flips nothing and should not request a redraw")
	}
}

func TestDrawOutOfRange(t *testing.T) {
	c, _ := newTestCPU()
	loadProgram(t, c, 0xAFFD, 0xD015)
	step(t, c, 1)
	if _, err := c.Cycle(Keypad{}); err == nil {
		t.Fatal("expected fault reading sprite past end of memory")
	}
	if c.Display.LitCount() != 0 {
		t.Error("faulting draw must not touch the display")
	}
}

func TestDrawFontGlyph(t *testing.T) {
	c, _ := newTestCPU()
	c.V[2] = 0x0
	loadProgram(t, c,
		0xF229, // LD F, V2
		0xD335, // DRW V3, V3, 5
	)
	step(t, c, 2)
	// "0" is a 4x5 box with a hollow middle: 14 lit pixels.
	if got := c.Display.LitCount(); got != 14 {
		t.Errorf("glyph 0: expected 14 lit pixels, got %d", got)
	}
}

func TestClearReportsChange(t *testing.T) {
	var f Framebuffer
	if f.Clear() {
		t.Error("clearing a blank display should report no change")
	}
	f.Pixels[5] = true
	if !f.Clear() {
		t.Error("clearing a lit display should report a change")
	}
	if f.LitCount() != 0 {
		t.Error("display not cleared")
	}
}

func TestFramebufferRGBA(t *testing.T) {
	var f Framebuffer
	f.Pixels[1] = true

	pixels := f.RGBA(DefaultPalette)
	if len(pixels) != DisplayWidth*DisplayHeight*4 {
		t.Fatalf("expected %d bytes, got %d", DisplayWidth*DisplayHeight*4, len(pixels))
	}
	if pixels[0] != 0 || pixels[3] != 0xFF {
		t.Errorf("pixel 0: expected opaque black, got %v", pixels[0:4])
	}
	if pixels[4] != 0xFF || pixels[5] != 0xFF || pixels[6] != 0xFF {
		t.Errorf("pixel 1: expected white, got %v", pixels[4:8])
	}
}

func TestFramebufferImageScale(t *testing.T) {
	var f Framebuffer
	f.Pixels[DisplayWidth+2] = true // (2,1)

	img := f.Image(DefaultPalette, 10)
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 320 {
		t.Fatalf("expected 640x320, got %v", b)
	}
	if got := img.RGBAAt(25, 15); got != DefaultPalette.On {
		t.Errorf("scaled pixel (2,1): got %v", got)
	}
	if got := img.RGBAAt(35, 15); got != DefaultPalette.Off {
		t.Errorf("neighbour of (2,1): got %v", got)
	}
}

func TestSaveScreenshot(t *testing.T) {
	var f Framebuffer
	f.Pixels[0] = true
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := f.SaveScreenshot(path, DefaultPalette, 2); err != nil {
		t.Fatalf("SaveScreenshot: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	img, err := png.Decode(in)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("expected 128x64, got %v", b)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF {
		t.Errorf("expected lit corner pixel, got %d %d %d", r, g, b)
	}
}
